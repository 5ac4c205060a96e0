package domain

import "testing"

func adminNS(prefix string, admin AccountID) Namespace {
	return Namespace{
		Prefix:  prefix,
		Members: []Member{{ID: admin, Role: RoleAdmin}},
	}
}

// ---------------------------------------------------------------------------
// Prefix validity
// ---------------------------------------------------------------------------

func TestValidPrefix(t *testing.T) {
	cases := []struct {
		prefix string
		want   bool
	}{
		{"Modder.", true},
		{"Modder_", true},
		{"Modder-", true},
		{"a.", true},
		{".", true},
		{"Modder", false},
		{"Modder1", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidPrefix(tc.prefix); got != tc.want {
			t.Errorf("ValidPrefix(%q) = %v, want %v", tc.prefix, got, tc.want)
		}
	}
}

func TestHasSymbol(t *testing.T) {
	if HasSymbol("plainid") {
		t.Error("plainid has no symbol")
	}
	if !HasSymbol("Modder.Pack") {
		t.Error("Modder.Pack contains a symbol")
	}
}

// ---------------------------------------------------------------------------
// Conflict resolution
// ---------------------------------------------------------------------------

func TestFindConflict_NoCandidates(t *testing.T) {
	if got := FindConflict(nil, "u1", "Modder."); got != "" {
		t.Errorf("expected no conflict, got %q", got)
	}
}

func TestFindConflict_ExactDuplicateBlocksEvenAdmins(t *testing.T) {
	candidates := []Namespace{adminNS("Modder.", "u1")}

	// Even the admin of the namespace cannot claim the same prefix twice.
	if got := FindConflict(candidates, "u1", "Modder."); got != "Modder." {
		t.Errorf("expected duplicate conflict %q, got %q", "Modder.", got)
	}
}

func TestFindConflict_CaseVariantDuplicateBlocksAdmin(t *testing.T) {
	candidates := []Namespace{adminNS("x.", "u1")}

	// A case variant of an existing prefix is the same namespace; letting
	// its own admin claim it would create two equal-length governing
	// candidates for every id beneath it.
	if got := FindConflict(candidates, "u1", "X."); got != "x." {
		t.Errorf("expected duplicate conflict %q, got %q", "x.", got)
	}
}

func TestFindConflict_StrangerBlockedByAncestor(t *testing.T) {
	candidates := []Namespace{adminNS("Modder.", "u1")}

	if got := FindConflict(candidates, "u2", "Modder.Pack."); got != "Modder." {
		t.Errorf("expected conflict %q, got %q", "Modder.", got)
	}
}

func TestFindConflict_StrangerBlockedByDescendant(t *testing.T) {
	candidates := []Namespace{adminNS("Modder.Pack.", "u1")}

	// Claiming above an existing claim is blocked too.
	if got := FindConflict(candidates, "u2", "Modder."); got != "Modder.Pack." {
		t.Errorf("expected conflict %q, got %q", "Modder.Pack.", got)
	}
}

func TestFindConflict_AdminOfAncestorAllowed(t *testing.T) {
	candidates := []Namespace{adminNS("Modder.", "u1")}

	if got := FindConflict(candidates, "u1", "Modder.Pack."); got != "" {
		t.Errorf("admin of ancestor should create freely, got conflict %q", got)
	}
}

func TestFindConflict_DelegationEscapeHatch(t *testing.T) {
	// u2 administers "x.y." even though "x." belongs to someone else. Admin
	// rights on the deeper ancestor waive the shallower conflict.
	candidates := []Namespace{
		adminNS("x.", "u1"),
		adminNS("x.y.", "u2"),
	}

	if got := FindConflict(candidates, "u2", "x.y.z."); got != "" {
		t.Errorf("delegated admin should create below their namespace, got conflict %q", got)
	}

	// A stranger is still blocked by the deepest claim.
	if got := FindConflict(candidates, "u3", "x.y.z."); got != "x.y." {
		t.Errorf("expected conflict %q, got %q", "x.y.", got)
	}
}

func TestFindConflict_WaiverRequiresDeeperAncestor(t *testing.T) {
	// u2 administers "x." but the conflict "x.y." is deeper, so the waiver
	// does not apply.
	candidates := []Namespace{
		adminNS("x.", "u2"),
		adminNS("x.y.", "u1"),
	}

	if got := FindConflict(candidates, "u2", "x.y.z."); got != "x.y." {
		t.Errorf("expected conflict %q, got %q", "x.y.", got)
	}
}

func TestFindConflict_CaseInsensitive(t *testing.T) {
	candidates := []Namespace{adminNS("modder.", "u1")}

	if got := FindConflict(candidates, "u2", "MODDER.Pack."); got != "modder." {
		t.Errorf("expected case-insensitive conflict %q, got %q", "modder.", got)
	}
}

func TestFindConflict_CollaboratorIsNotAdmin(t *testing.T) {
	candidates := []Namespace{{
		Prefix: "Modder.",
		Members: []Member{
			{ID: "u1", Role: RoleAdmin},
			{ID: "u2", Role: RoleCollaborator},
		},
	}}

	if got := FindConflict(candidates, "u2", "Modder.Pack."); got != "Modder." {
		t.Errorf("collaborator must not pass the admin check, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// Governing namespace lookup
// ---------------------------------------------------------------------------

func TestGoverningNamespace_LongestRegisteredWins(t *testing.T) {
	short := adminNS("x.", "u1")
	short.Registered = true
	long := adminNS("x.y.", "u2")
	long.Registered = true
	candidates := []Namespace{short, long}

	got := GoverningNamespace(candidates, "x.y.pack")
	if got == nil || got.Prefix != "x.y." {
		t.Fatalf("expected governing namespace x.y., got %+v", got)
	}
}

func TestGoverningNamespace_IgnoresUnregistered(t *testing.T) {
	ns := adminNS("x.", "u1")
	candidates := []Namespace{ns}

	if got := GoverningNamespace(candidates, "x.pack"); got != nil {
		t.Errorf("unregistered namespace must not govern, got %+v", got)
	}
}

func TestGoverningNamespace_CaseInsensitive(t *testing.T) {
	ns := adminNS("Modder.", "u1")
	ns.Registered = true
	candidates := []Namespace{ns}

	got := GoverningNamespace(candidates, "modder.pack")
	if got == nil || got.Prefix != "Modder." {
		t.Fatalf("expected case-insensitive governing match, got %+v", got)
	}
}

func TestGoverningNamespace_SymbollessIDNeverGoverned(t *testing.T) {
	ns := adminNS("pack", "u1")
	ns.Registered = true
	candidates := []Namespace{ns}

	if got := GoverningNamespace(candidates, "packthing"); got != nil {
		t.Errorf("id without symbols cannot be governed, got %+v", got)
	}
}
