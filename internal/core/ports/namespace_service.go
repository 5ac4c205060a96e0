package ports

import (
	"context"

	"github.com/modhaven/modhaven/internal/core/domain"
)

// NamespaceService defines use-case operations on namespaces. Every call
// takes the already-authenticated actor; authentication itself happens at
// the transport boundary.
type NamespaceService interface {
	// Get returns a namespace by exact prefix.
	Get(ctx context.Context, prefix string) (*domain.Namespace, error)
	// Create claims prefix for actor, who becomes the sole admin member.
	// Fails with domain.ErrInvalidPrefix when the prefix does not end with
	// a symbol, or a ConflictError naming the blocking prefix.
	Create(ctx context.Context, actor *domain.Account, prefix string) (*domain.Namespace, error)
	// Delete removes a namespace. Requires an admin member or site admin.
	Delete(ctx context.Context, actor *domain.Account, prefix string) error
	// UpdateMembers applies a batch of membership changes. Requires an
	// admin member or site admin. Deletes the namespace when no admin
	// member remains afterwards.
	UpdateMembers(ctx context.Context, actor *domain.Account, prefix string, updates domain.MemberUpdates) error
	// Invite adds a pending member. Requires an admin member or site admin.
	Invite(ctx context.Context, actor *domain.Account, prefix string, invited domain.AccountID) error
	// AcceptInvite is the only transition from invited to collaborator,
	// performed by the invited account itself.
	AcceptInvite(ctx context.Context, actor *domain.Account, prefix string) error
	// Leave removes the actor's own membership (or pending invite).
	Leave(ctx context.Context, actor *domain.Account, prefix string) error
	// ChangeRole sets a member's role to admin or collaborator. Rejected
	// while the target's invite is pending.
	ChangeRole(ctx context.Context, actor *domain.Account, prefix string, target domain.AccountID, role domain.Role) error
	// Register marks the namespace as registered, constraining package
	// ownership under the prefix. Blocked while a package under the prefix
	// is owned by a non-member.
	Register(ctx context.Context, actor *domain.Account, prefix string) error
	// ListMemberOrInvited returns the namespaces the actor belongs to,
	// including pending invites.
	ListMemberOrInvited(ctx context.Context, actor *domain.Account) ([]domain.Namespace, error)
}
