package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/modhaven/modhaven/internal/api/metrics"
	"github.com/modhaven/modhaven/internal/core/domain"
	"github.com/modhaven/modhaven/internal/core/ports"
	"github.com/modhaven/modhaven/internal/core/query"
)

// registerScanBatch bounds how many packages the register check pulls per
// storage call.
const registerScanBatch = 100

// NamespaceService implements namespace lifecycle and membership rules. The
// conflict and governing-prefix decisions live in the domain package; this
// service only materializes candidate sets and orchestrates writes, so both
// storage engines share one copy of the decision logic.
type NamespaceService struct {
	namespaces ports.NamespaceRepository
	packages   ports.PackageRepository
	logger     zerolog.Logger
}

func NewNamespaceService(namespaces ports.NamespaceRepository, packages ports.PackageRepository, logger zerolog.Logger) *NamespaceService {
	return &NamespaceService{namespaces: namespaces, packages: packages, logger: logger}
}

func (s *NamespaceService) Get(ctx context.Context, prefix string) (*domain.Namespace, error) {
	return s.namespaces.FindNamespace(ctx, prefix)
}

func (s *NamespaceService) Create(ctx context.Context, actor *domain.Account, prefix string) (*domain.Namespace, error) {
	if !domain.ValidPrefix(prefix) {
		return nil, domain.ErrInvalidPrefix
	}

	candidates, err := s.namespaces.ListRelatedNamespaces(ctx, prefix)
	if err != nil {
		return nil, err
	}

	if conflict := domain.FindConflict(candidates, actor.ID, prefix); conflict != "" {
		kind := "overlap"
		if strings.EqualFold(conflict, prefix) {
			kind = "duplicate"
		}
		metrics.NamespaceConflictsTotal.WithLabelValues(kind).Inc()
		return nil, fmt.Errorf("%w: %s*", domain.ErrNamespaceConflict, conflict)
	}

	ns := &domain.Namespace{
		Prefix:     prefix,
		Registered: false,
		Members:    []domain.Member{{ID: actor.ID, Role: domain.RoleAdmin}},
	}

	if err := s.namespaces.InsertNamespace(ctx, ns); err != nil {
		return nil, err
	}

	s.logger.Info().Str("prefix", prefix).Str("account_id", string(actor.ID)).Msg("namespace created")
	return ns, nil
}

func (s *NamespaceService) Delete(ctx context.Context, actor *domain.Account, prefix string) error {
	ns, err := s.namespaces.FindNamespace(ctx, prefix)
	if err != nil {
		return err
	}
	if err := requireNamespaceAdmin(ns, actor, "namespace_delete"); err != nil {
		return err
	}

	if err := s.namespaces.DeleteNamespace(ctx, prefix); err != nil {
		return err
	}
	s.logger.Info().Str("prefix", prefix).Str("account_id", string(actor.ID)).Msg("namespace deleted")
	return nil
}

func (s *NamespaceService) UpdateMembers(ctx context.Context, actor *domain.Account, prefix string, updates domain.MemberUpdates) error {
	ns, err := s.namespaces.FindNamespace(ctx, prefix)
	if err != nil {
		return err
	}
	if err := requireNamespaceAdmin(ns, actor, "members"); err != nil {
		return err
	}

	// Role changes go through the same gates as ChangeRole. They are checked
	// against the roster as it stands after the batch's removals and invites,
	// so inviting and promoting in one batch is rejected too: accepting the
	// invite is the only way out of the invited role.
	if len(updates.RoleChanges) > 0 {
		roster := domain.Namespace{Members: domain.ApplyMemberUpdates(ns.Members, domain.MemberUpdates{
			Invited: updates.Invited,
			Removed: updates.Removed,
		})}
		for target, role := range updates.RoleChanges {
			if role != domain.RoleAdmin && role != domain.RoleCollaborator {
				return domain.ErrInvalidRole
			}
			member := roster.Member(target)
			if member == nil || member.Role == domain.RoleInvited {
				return domain.ErrInviteNotAccepted
			}
		}
	}

	return s.applyMemberUpdates(ctx, prefix, updates)
}

func (s *NamespaceService) Invite(ctx context.Context, actor *domain.Account, prefix string, invited domain.AccountID) error {
	ns, err := s.namespaces.FindNamespace(ctx, prefix)
	if err != nil {
		return err
	}
	if err := requireNamespaceAdmin(ns, actor, "invite"); err != nil {
		return err
	}

	return s.applyMemberUpdates(ctx, prefix, domain.MemberUpdates{Invited: []domain.AccountID{invited}})
}

func (s *NamespaceService) AcceptInvite(ctx context.Context, actor *domain.Account, prefix string) error {
	ns, err := s.namespaces.FindNamespace(ctx, prefix)
	if err != nil {
		return err
	}

	member := ns.Member(actor.ID)
	if member == nil {
		return domain.ErrNotInvited
	}
	if member.Role != domain.RoleInvited {
		// already accepted
		return nil
	}

	return s.applyMemberUpdates(ctx, prefix, domain.MemberUpdates{
		RoleChanges: map[domain.AccountID]domain.Role{actor.ID: domain.RoleCollaborator},
	})
}

func (s *NamespaceService) Leave(ctx context.Context, actor *domain.Account, prefix string) error {
	ns, err := s.namespaces.FindNamespace(ctx, prefix)
	if err != nil {
		return err
	}
	if ns.Member(actor.ID) == nil {
		return domain.ErrNotInvited
	}

	return s.applyMemberUpdates(ctx, prefix, domain.MemberUpdates{Removed: []domain.AccountID{actor.ID}})
}

func (s *NamespaceService) ChangeRole(ctx context.Context, actor *domain.Account, prefix string, target domain.AccountID, role domain.Role) error {
	if role != domain.RoleAdmin && role != domain.RoleCollaborator {
		return domain.ErrInvalidRole
	}

	ns, err := s.namespaces.FindNamespace(ctx, prefix)
	if err != nil {
		return err
	}
	if err := requireNamespaceAdmin(ns, actor, "role_change"); err != nil {
		return err
	}

	member := ns.Member(target)
	if member == nil || member.Role == domain.RoleInvited {
		return domain.ErrInviteNotAccepted
	}

	return s.applyMemberUpdates(ctx, prefix, domain.MemberUpdates{
		RoleChanges: map[domain.AccountID]domain.Role{target: role},
	})
}

func (s *NamespaceService) Register(ctx context.Context, actor *domain.Account, prefix string) error {
	ns, err := s.namespaces.FindNamespace(ctx, prefix)
	if err != nil {
		return err
	}
	if err := requireNamespaceAdmin(ns, actor, "register"); err != nil {
		return err
	}

	members := make(map[domain.AccountID]struct{}, len(ns.Members))
	for _, m := range ns.Members {
		if m.Role != domain.RoleInvited {
			members[m.ID] = struct{}{}
		}
	}

	// Package-ownership scan: every package under the prefix must already
	// belong to a non-invited member, registered or not.
	q := query.Query{"^package.id": prefix}
	for skip := 0; ; skip += registerScanBatch {
		metas, err := s.packages.ListPackages(ctx, q, ports.SortPackageID, skip, registerScanBatch)
		if err != nil {
			return err
		}
		for i := range metas {
			meta := &metas[i]
			if _, ok := members[meta.Creator]; !ok {
				return fmt.Errorf("%w: blocked by %s (%s)", domain.ErrNamespaceConflict, meta.Package.Name, meta.Package.ID)
			}
		}
		if len(metas) < registerScanBatch {
			break
		}
	}

	if err := s.namespaces.SetNamespaceRegistered(ctx, prefix, true); err != nil {
		return err
	}
	s.logger.Info().Str("prefix", prefix).Msg("namespace registered")
	return nil
}

func (s *NamespaceService) ListMemberOrInvited(ctx context.Context, actor *domain.Account) ([]domain.Namespace, error) {
	return s.namespaces.ListAccountNamespaces(ctx, actor.ID)
}

// applyMemberUpdates commits a member batch and enforces the last-admin
// invariant: a namespace left without an admin is deleted in the same call.
func (s *NamespaceService) applyMemberUpdates(ctx context.Context, prefix string, updates domain.MemberUpdates) error {
	if err := s.namespaces.UpdateNamespaceMembers(ctx, prefix, updates); err != nil {
		return err
	}

	ns, err := s.namespaces.FindNamespace(ctx, prefix)
	if err != nil {
		return err
	}
	if ns.HasAdmin() {
		return nil
	}

	if err := s.namespaces.DeleteNamespace(ctx, prefix); err != nil {
		return err
	}
	s.logger.Info().Str("prefix", prefix).Msg("namespace deleted: no admin member remains")
	return nil
}

// requireNamespaceAdmin allows admin members and site admins.
func requireNamespaceAdmin(ns *domain.Namespace, actor *domain.Account, operation string) error {
	if actor.Admin || ns.IsAdmin(actor.ID) {
		return nil
	}
	metrics.PermissionDenialsTotal.WithLabelValues(operation).Inc()
	return domain.ErrPermissionDenied
}
