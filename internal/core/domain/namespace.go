package domain

import "errors"

// Role is a namespace membership level. Invited is a pending state: only the
// invited account itself may upgrade it to collaborator by accepting.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleCollaborator Role = "collaborator"
	RoleInvited      Role = "invited"
)

var ErrNamespaceNotFound = errors.New("namespace not found")
var ErrInvalidPrefix = errors.New("prefix must end with a symbol")
var ErrInvalidRole = errors.New("invalid role")
var ErrNotInvited = errors.New("account is not invited")
var ErrInviteNotAccepted = errors.New("role can't be changed until invite is accepted")
var ErrPermissionDenied = errors.New("permission denied")

// Member associates an account with its role in a namespace.
type Member struct {
	ID   AccountID `json:"id" bson:"id"`
	Role Role      `json:"role" bson:"role"`
}

// Namespace is a claim over all package ids sharing Prefix. An unregistered
// namespace reserves the prefix against other namespace creations but does
// not constrain package ownership until registered.
type Namespace struct {
	Prefix     string   `json:"prefix" bson:"prefix"`
	Registered bool     `json:"registered" bson:"registered"`
	Members    []Member `json:"members" bson:"members"`
}

// Member returns the member entry for id, or nil.
func (n *Namespace) Member(id AccountID) *Member {
	for i := range n.Members {
		if n.Members[i].ID == id {
			return &n.Members[i]
		}
	}
	return nil
}

// IsAdmin reports whether id is an admin member.
func (n *Namespace) IsAdmin(id AccountID) bool {
	m := n.Member(id)
	return m != nil && m.Role == RoleAdmin
}

// HasAdmin reports whether at least one member holds the admin role. A
// namespace that loses its last admin must be deleted by the caller.
func (n *Namespace) HasAdmin() bool {
	for _, m := range n.Members {
		if m.Role == RoleAdmin {
			return true
		}
	}
	return false
}

// MemberUpdates is a transactional batch of membership changes. Removals and
// invites are applied together, then role changes are evaluated against the
// resulting member set.
type MemberUpdates struct {
	Invited     []AccountID        `json:"invited"`
	Removed     []AccountID        `json:"removed"`
	RoleChanges map[AccountID]Role `json:"roleChanges"`
}

// ApplyMemberUpdates computes the member set that results from applying u to
// members. Removals apply to the existing set, then invites are merged with
// duplicates collapsed keeping the first occurrence, so inviting an existing
// member is a no-op while removing and inviting in one batch re-invites.
// Both storage engines must agree with this function; the database engine
// translates it into the equivalent sequence of writes.
func ApplyMemberUpdates(members []Member, u MemberUpdates) []Member {
	removed := make(map[AccountID]struct{}, len(u.Removed))
	for _, id := range u.Removed {
		removed[id] = struct{}{}
	}

	merged := make([]Member, 0, len(members)+len(u.Invited))
	seen := make(map[AccountID]struct{}, len(members)+len(u.Invited))
	for _, m := range members {
		if _, gone := removed[m.ID]; gone {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		merged = append(merged, m)
	}
	for _, id := range u.Invited {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, Member{ID: id, Role: RoleInvited})
	}

	for i := range merged {
		if role, ok := u.RoleChanges[merged[i].ID]; ok {
			merged[i].Role = role
		}
	}

	return merged
}
