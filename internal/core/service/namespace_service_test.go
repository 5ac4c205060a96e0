package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/modhaven/modhaven/internal/core/domain"
	"github.com/modhaven/modhaven/internal/infrastructure/db/memory"
)

// The service tests run against the real in-memory engine: it is the
// reference storage implementation, so stubbing it would only duplicate it.

var discardLogger = zerolog.Nop()

func newNamespaceService() (*NamespaceService, *memory.Store) {
	store := memory.NewStore("", discardLogger)
	return NewNamespaceService(store, store, discardLogger), store
}

func account(id string) *domain.Account {
	return &domain.Account{ID: domain.AccountID(id), Username: id}
}

func siteAdmin(id string) *domain.Account {
	a := account(id)
	a.Admin = true
	return a
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestNamespaceService_Create_Success(t *testing.T) {
	svc, _ := newNamespaceService()

	ns, err := svc.Create(context.Background(), account("u1"), "Modder.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ns.Registered {
		t.Error("new namespace must start unregistered")
	}
	if len(ns.Members) != 1 || ns.Members[0].ID != "u1" || ns.Members[0].Role != domain.RoleAdmin {
		t.Errorf("creator must be the sole admin, got %+v", ns.Members)
	}
}

func TestNamespaceService_Create_InvalidPrefix(t *testing.T) {
	svc, _ := newNamespaceService()

	_, err := svc.Create(context.Background(), account("u1"), "Modder")
	if !errors.Is(err, domain.ErrInvalidPrefix) {
		t.Fatalf("expected ErrInvalidPrefix, got %v", err)
	}
}

func TestNamespaceService_Create_StrangerConflict(t *testing.T) {
	svc, _ := newNamespaceService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, account("u1"), "Modder."); err != nil {
		t.Fatalf("seed create failed: %v", err)
	}

	_, err := svc.Create(ctx, account("u2"), "Modder.Pack.")
	if !errors.Is(err, domain.ErrNamespaceConflict) {
		t.Fatalf("expected ErrNamespaceConflict, got %v", err)
	}
}

func TestNamespaceService_Create_AdminExtendsOwnPrefix(t *testing.T) {
	svc, _ := newNamespaceService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, account("u1"), "Modder."); err != nil {
		t.Fatalf("seed create failed: %v", err)
	}
	if _, err := svc.Create(ctx, account("u1"), "Modder.Pack."); err != nil {
		t.Fatalf("admin must extend their own prefix: %v", err)
	}
}

func TestNamespaceService_Create_DelegationEscapeHatch(t *testing.T) {
	svc, store := newNamespaceService()
	ctx := context.Background()

	// u1 owns "x.", and delegates "x.y." to u2 by creating it and handing
	// over the admin role.
	if _, err := svc.Create(ctx, account("u1"), "x."); err != nil {
		t.Fatalf("seed create failed: %v", err)
	}
	if _, err := svc.Create(ctx, account("u1"), "x.y."); err != nil {
		t.Fatalf("seed create failed: %v", err)
	}
	err := store.UpdateNamespaceMembers(ctx, "x.y.", domain.MemberUpdates{
		Invited:     []domain.AccountID{"u2"},
		RoleChanges: map[domain.AccountID]domain.Role{"u2": domain.RoleAdmin},
	})
	if err != nil {
		t.Fatalf("seed members failed: %v", err)
	}

	if _, err := svc.Create(ctx, account("u2"), "x.y.z."); err != nil {
		t.Fatalf("delegated admin must create below x.y.: %v", err)
	}
	if _, err := svc.Create(ctx, account("u2"), "x.w."); !errors.Is(err, domain.ErrNamespaceConflict) {
		t.Fatalf("u2 has no authority directly under x., got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Membership lifecycle
// ---------------------------------------------------------------------------

func TestNamespaceService_InviteAcceptPromote(t *testing.T) {
	svc, _ := newNamespaceService()
	ctx := context.Background()
	admin := account("u1")

	if _, err := svc.Create(ctx, admin, "Modder."); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Invite(ctx, admin, "Modder.", "u2"); err != nil {
		t.Fatalf("invite failed: %v", err)
	}

	// The admin cannot promote a member whose invite is pending.
	err := svc.ChangeRole(ctx, admin, "Modder.", "u2", domain.RoleAdmin)
	if !errors.Is(err, domain.ErrInviteNotAccepted) {
		t.Fatalf("expected ErrInviteNotAccepted, got %v", err)
	}

	if err := svc.AcceptInvite(ctx, account("u2"), "Modder."); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	ns, err := svc.Get(ctx, "Modder.")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if m := ns.Member("u2"); m == nil || m.Role != domain.RoleCollaborator {
		t.Fatalf("accepting must yield collaborator, got %+v", m)
	}

	if err := svc.ChangeRole(ctx, admin, "Modder.", "u2", domain.RoleAdmin); err != nil {
		t.Fatalf("promote failed: %v", err)
	}
	ns, _ = svc.Get(ctx, "Modder.")
	if !ns.IsAdmin("u2") {
		t.Error("u2 must be admin after promotion")
	}
}

func TestNamespaceService_UpdateMembers_CannotPromoteInvited(t *testing.T) {
	svc, _ := newNamespaceService()
	ctx := context.Background()
	admin := account("u1")

	if _, err := svc.Create(ctx, admin, "Modder."); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Invite(ctx, admin, "Modder.", "u2"); err != nil {
		t.Fatalf("invite failed: %v", err)
	}

	// The batch path is bound by the same rule as ChangeRole: a pending
	// invite cannot be promoted by another party.
	err := svc.UpdateMembers(ctx, admin, "Modder.", domain.MemberUpdates{
		RoleChanges: map[domain.AccountID]domain.Role{"u2": domain.RoleAdmin},
	})
	if !errors.Is(err, domain.ErrInviteNotAccepted) {
		t.Fatalf("expected ErrInviteNotAccepted, got %v", err)
	}
	ns, _ := svc.Get(ctx, "Modder.")
	if m := ns.Member("u2"); m == nil || m.Role != domain.RoleInvited {
		t.Fatalf("rejected batch must leave the invite pending, got %+v", m)
	}

	// Inviting and promoting in one batch is the same violation.
	err = svc.UpdateMembers(ctx, admin, "Modder.", domain.MemberUpdates{
		Invited:     []domain.AccountID{"u3"},
		RoleChanges: map[domain.AccountID]domain.Role{"u3": domain.RoleCollaborator},
	})
	if !errors.Is(err, domain.ErrInviteNotAccepted) {
		t.Fatalf("expected ErrInviteNotAccepted for same-batch promote, got %v", err)
	}

	// Removing and re-inviting resets the target to invited, so a role
	// change in the same batch is rejected even for an accepted member.
	if err := svc.AcceptInvite(ctx, account("u2"), "Modder."); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	err = svc.UpdateMembers(ctx, admin, "Modder.", domain.MemberUpdates{
		Invited:     []domain.AccountID{"u2"},
		Removed:     []domain.AccountID{"u2"},
		RoleChanges: map[domain.AccountID]domain.Role{"u2": domain.RoleAdmin},
	})
	if !errors.Is(err, domain.ErrInviteNotAccepted) {
		t.Fatalf("expected ErrInviteNotAccepted for re-invited member, got %v", err)
	}
}

func TestNamespaceService_UpdateMembers_RejectsUnknownRole(t *testing.T) {
	svc, _ := newNamespaceService()
	ctx := context.Background()
	admin := account("u1")

	if _, err := svc.Create(ctx, admin, "Modder."); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err := svc.UpdateMembers(ctx, admin, "Modder.", domain.MemberUpdates{
		RoleChanges: map[domain.AccountID]domain.Role{"u1": "superuser"},
	})
	if !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	ns, _ := svc.Get(ctx, "Modder.")
	if !ns.IsAdmin("u1") {
		t.Error("rejected batch must not alter the roster")
	}
}

func TestNamespaceService_AcceptInvite_NotInvited(t *testing.T) {
	svc, _ := newNamespaceService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, account("u1"), "Modder."); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err := svc.AcceptInvite(ctx, account("u2"), "Modder.")
	if !errors.Is(err, domain.ErrNotInvited) {
		t.Fatalf("expected ErrNotInvited, got %v", err)
	}
}

func TestNamespaceService_AcceptInvite_AlreadyMemberIsNoop(t *testing.T) {
	svc, _ := newNamespaceService()
	ctx := context.Background()
	admin := account("u1")

	if _, err := svc.Create(ctx, admin, "Modder."); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.AcceptInvite(ctx, admin, "Modder."); err != nil {
		t.Fatalf("accepting as an existing member must be a no-op, got %v", err)
	}
	ns, _ := svc.Get(ctx, "Modder.")
	if !ns.IsAdmin("u1") {
		t.Error("no-op accept must not touch the admin role")
	}
}

func TestNamespaceService_UpdateMembers_RequiresAdmin(t *testing.T) {
	svc, _ := newNamespaceService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, account("u1"), "Modder."); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err := svc.Invite(ctx, account("u2"), "Modder.", "u3")
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	// A site admin passes the same guard without being a member.
	if err := svc.Invite(ctx, siteAdmin("root"), "Modder.", "u3"); err != nil {
		t.Fatalf("site admin invite failed: %v", err)
	}
}

func TestNamespaceService_LastAdminLeaving_DeletesNamespace(t *testing.T) {
	svc, _ := newNamespaceService()
	ctx := context.Background()
	admin := account("u1")

	if _, err := svc.Create(ctx, admin, "Modder."); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Invite(ctx, admin, "Modder.", "u2"); err != nil {
		t.Fatalf("invite failed: %v", err)
	}
	if err := svc.AcceptInvite(ctx, account("u2"), "Modder."); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if err := svc.Leave(ctx, admin, "Modder."); err != nil {
		t.Fatalf("leave failed: %v", err)
	}

	_, err := svc.Get(ctx, "Modder.")
	if !errors.Is(err, domain.ErrNamespaceNotFound) {
		t.Fatalf("namespace without admins must be deleted, got %v", err)
	}
}

func TestNamespaceService_DemotingLastAdmin_DeletesNamespace(t *testing.T) {
	svc, _ := newNamespaceService()
	ctx := context.Background()
	admin := account("u1")

	if _, err := svc.Create(ctx, admin, "Modder."); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err := svc.UpdateMembers(ctx, admin, "Modder.", domain.MemberUpdates{
		RoleChanges: map[domain.AccountID]domain.Role{"u1": domain.RoleCollaborator},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	_, err = svc.Get(ctx, "Modder.")
	if !errors.Is(err, domain.ErrNamespaceNotFound) {
		t.Fatalf("demoting the last admin must delete the namespace, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func seedPackage(t *testing.T, store *memory.Store, id, creator string) {
	t.Helper()
	meta := &domain.PackageMeta{
		Package: domain.Package{Category: "card", ID: id, Name: "Pack " + id},
		Creator: domain.AccountID(creator),
	}
	if err := store.UpsertPackage(context.Background(), meta); err != nil {
		t.Fatalf("seed package %s: %v", id, err)
	}
}

func TestNamespaceService_Register_Success(t *testing.T) {
	svc, store := newNamespaceService()
	ctx := context.Background()
	admin := account("u1")

	if _, err := svc.Create(ctx, admin, "Modder."); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	seedPackage(t, store, "Modder.Fireball", "u1")

	if err := svc.Register(ctx, admin, "Modder."); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	ns, _ := svc.Get(ctx, "Modder.")
	if !ns.Registered {
		t.Error("namespace must be registered")
	}
}

func TestNamespaceService_Register_BlockedByOutsiderPackage(t *testing.T) {
	svc, store := newNamespaceService()
	ctx := context.Background()
	admin := account("u1")

	if _, err := svc.Create(ctx, admin, "Modder."); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	seedPackage(t, store, "Modder.Stolen", "outsider")

	err := svc.Register(ctx, admin, "Modder.")
	if !errors.Is(err, domain.ErrNamespaceConflict) {
		t.Fatalf("expected blocking conflict, got %v", err)
	}

	ns, _ := svc.Get(ctx, "Modder.")
	if ns.Registered {
		t.Error("blocked register must leave the namespace unregistered")
	}
}

func TestNamespaceService_Register_InvitedMemberDoesNotCount(t *testing.T) {
	svc, store := newNamespaceService()
	ctx := context.Background()
	admin := account("u1")

	if _, err := svc.Create(ctx, admin, "Modder."); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Invite(ctx, admin, "Modder.", "u2"); err != nil {
		t.Fatalf("invite failed: %v", err)
	}
	seedPackage(t, store, "Modder.Pending", "u2")

	err := svc.Register(ctx, admin, "Modder.")
	if !errors.Is(err, domain.ErrNamespaceConflict) {
		t.Fatalf("pending invitee's package must block, got %v", err)
	}
}

func TestNamespaceService_ListMemberOrInvited(t *testing.T) {
	svc, _ := newNamespaceService()
	ctx := context.Background()
	admin := account("u1")

	if _, err := svc.Create(ctx, admin, "Modder."); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Create(ctx, account("u2"), "Other."); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Invite(ctx, account("u2"), "Other.", "u1"); err != nil {
		t.Fatalf("invite failed: %v", err)
	}

	namespaces, err := svc.ListMemberOrInvited(ctx, admin)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(namespaces) != 2 {
		t.Fatalf("expected membership and pending invite, got %d namespaces", len(namespaces))
	}
}
