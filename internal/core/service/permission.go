package service

import (
	"context"

	"github.com/modhaven/modhaven/internal/core/domain"
	"github.com/modhaven/modhaven/internal/core/ports"
)

// PermissionResolver decides package edit rights. It is a pure function of
// current persisted state: nothing is cached across calls, since membership
// can change between requests.
type PermissionResolver struct {
	namespaces ports.NamespaceRepository
}

func NewPermissionResolver(namespaces ports.NamespaceRepository) *PermissionResolver {
	return &PermissionResolver{namespaces: namespaces}
}

// GoverningNamespace resolves the registered namespace with the longest
// case-insensitive prefix of packageID, or nil. Ids without a symbol
// character cannot match any prefix, so no lookup is issued for them.
func (r *PermissionResolver) GoverningNamespace(ctx context.Context, packageID string) (*domain.Namespace, error) {
	if !domain.HasSymbol(packageID) {
		return nil, nil
	}

	candidates, err := r.namespaces.ListGoverningNamespaces(ctx, packageID)
	if err != nil {
		return nil, err
	}
	return domain.GoverningNamespace(candidates, packageID), nil
}

// HasEditPermission reports whether accountID may modify meta: true for the
// creator, otherwise true for non-invited members of the package's
// governing namespace.
func (r *PermissionResolver) HasEditPermission(ctx context.Context, meta *domain.PackageMeta, accountID domain.AccountID) (bool, error) {
	if meta.Creator != "" && meta.Creator == accountID {
		return true, nil
	}

	ns, err := r.GoverningNamespace(ctx, meta.Package.ID)
	if err != nil {
		return false, err
	}
	if ns == nil {
		// no namespace restricts or grants access beyond the owner
		return false, nil
	}

	member := ns.Member(accountID)
	return member != nil && member.Role != domain.RoleInvited, nil
}
