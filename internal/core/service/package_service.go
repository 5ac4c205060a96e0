package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/modhaven/modhaven/internal/api/metrics"
	"github.com/modhaven/modhaven/internal/core/domain"
	"github.com/modhaven/modhaven/internal/core/ports"
	"github.com/modhaven/modhaven/internal/core/query"
)

const (
	// maxNewDailyUploads caps how many new packages one account may create
	// per day.
	maxNewDailyUploads = 150
	// maxListLimit caps a single listing page.
	maxListLimit = 100
)

// patchWhitelist lists record fields a client may patch directly.
var patchWhitelist = []string{"hidden"}

// PackageService implements package metadata use cases. Archive and preview
// blobs live elsewhere; only their hash surfaces here.
type PackageService struct {
	packages ports.PackageRepository
	perms    *PermissionResolver
	logger   zerolog.Logger
	now      func() time.Time
}

func NewPackageService(packages ports.PackageRepository, perms *PermissionResolver, logger zerolog.Logger) *PackageService {
	return &PackageService{packages: packages, perms: perms, logger: logger, now: time.Now}
}

func (s *PackageService) Get(ctx context.Context, id string) (*domain.PackageMeta, error) {
	return s.packages.FindPackage(ctx, id)
}

func (s *PackageService) List(ctx context.Context, input ports.ListPackagesInput) ([]domain.PackageMeta, error) {
	q := query.Query{}

	if input.Category != "" {
		q["package.category"] = input.Category
	}
	if input.Name != "" {
		q["$package.name | $package.long_name"] = input.Name
	}
	if input.Creator != "" {
		q["creator"] = string(input.Creator)
	}
	if !input.IncludeHidden {
		q["hidden"] = false
	}

	skip := input.Skip
	if skip < 0 {
		skip = 0
	}
	limit := input.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	return s.packages.ListPackages(ctx, q, input.Sort, skip, limit)
}

// Upsert creates or updates a package record, enforcing edit permission over
// every record reachable through the id or past ids, the namespace rules for
// brand-new ids, and the daily cap. Records superseded by a rename are
// removed so an id maps to exactly one record.
func (s *PackageService) Upsert(ctx context.Context, actor *domain.Account, meta *domain.PackageMeta) (*domain.PackageMeta, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	matching, err := s.packages.FindPackagesByIDs(ctx, meta.IDs())
	if err != nil {
		return nil, err
	}

	for i := range matching {
		permitted, err := s.perms.HasEditPermission(ctx, &matching[i], actor.ID)
		if err != nil {
			return nil, err
		}
		if !permitted {
			// we don't have permission to update every matching package
			metrics.PermissionDenialsTotal.WithLabelValues("upsert").Inc()
			return nil, domain.ErrPermissionDenied
		}
	}

	idExists := false
	for i := range matching {
		if matching[i].Package.ID == meta.Package.ID {
			idExists = true
			break
		}
	}

	if !idExists {
		if err := s.checkNewPackage(ctx, actor, meta); err != nil {
			return nil, err
		}
		meta.Hidden = false
		meta.Creator = actor.ID
	}

	// enforcing uniqueness: renamed-away records are dropped
	var superseded []string
	for i := range matching {
		if matching[i].Package.ID != meta.Package.ID {
			superseded = append(superseded, matching[i].Package.ID)
		}
	}
	if len(superseded) > 0 {
		if err := s.packages.DeletePackages(ctx, superseded); err != nil {
			return nil, err
		}
	}

	if err := s.packages.UpsertPackage(ctx, meta); err != nil {
		return nil, err
	}

	result := "updated"
	if !idExists {
		result = "created"
	}
	metrics.PackageUpsertsTotal.WithLabelValues(result).Inc()

	s.logger.Info().Str("package_id", meta.Package.ID).Str("account_id", string(actor.ID)).Bool("new", !idExists).Msg("package meta upserted")
	return meta, nil
}

// checkNewPackage applies the rules that only bind at creation time: the
// governing namespace must accept the uploader, the new id's casing must
// match the prefix exactly, and the daily cap must not be exceeded.
func (s *PackageService) checkNewPackage(ctx context.Context, actor *domain.Account, meta *domain.PackageMeta) error {
	ns, err := s.perms.GoverningNamespace(ctx, meta.Package.ID)
	if err != nil {
		return err
	}
	if ns != nil {
		member := ns.Member(actor.ID)
		if member == nil || member.Role == domain.RoleInvited {
			return fmt.Errorf("%w: namespace %s*", domain.ErrPermissionDenied, ns.Prefix)
		}
		// prefix matching is case-insensitive everywhere else, but a new
		// id must adopt the namespace's exact casing
		if !strings.HasPrefix(meta.Package.ID, ns.Prefix) {
			return fmt.Errorf("%w: id casing must match namespace %s*", domain.ErrInvalidPackage, ns.Prefix)
		}
	}

	since := s.now().Add(-24 * time.Hour)
	count, err := s.packages.CountPackagesByCreatorSince(ctx, actor.ID, since)
	if err != nil {
		return err
	}
	if count >= maxNewDailyUploads {
		return domain.ErrUploadLimit
	}
	return nil
}

func (s *PackageService) Patch(ctx context.Context, actor *domain.Account, id string, patch map[string]any) (*domain.PackageMeta, error) {
	for key := range patch {
		allowed := false
		for _, name := range patchWhitelist {
			if key == name {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, fmt.Errorf("%w: field %q is not patchable", domain.ErrInvalidPackage, key)
		}
	}

	meta, err := s.packages.FindPackage(ctx, id)
	if err != nil {
		return nil, err
	}

	permitted, err := s.perms.HasEditPermission(ctx, meta, actor.ID)
	if err != nil {
		return nil, err
	}
	if !permitted {
		metrics.PermissionDenialsTotal.WithLabelValues("patch").Inc()
		return nil, domain.ErrPermissionDenied
	}

	if err := s.packages.PatchPackage(ctx, meta.Package.ID, patch); err != nil {
		return nil, err
	}

	return s.packages.FindPackage(ctx, meta.Package.ID)
}

func (s *PackageService) Delete(ctx context.Context, actor *domain.Account, id string) error {
	meta, err := s.packages.FindPackage(ctx, id)
	if err != nil {
		return err
	}

	permitted, err := s.perms.HasEditPermission(ctx, meta, actor.ID)
	if err != nil {
		return err
	}
	if !permitted {
		metrics.PermissionDenialsTotal.WithLabelValues("delete").Inc()
		return domain.ErrPermissionDenied
	}

	if err := s.packages.DeletePackages(ctx, []string{meta.Package.ID}); err != nil {
		return err
	}
	s.logger.Info().Str("package_id", meta.Package.ID).Str("account_id", string(actor.ID)).Msg("package deleted")
	return nil
}

func (s *PackageService) Hashes(ctx context.Context, ids []string) ([]ports.PackageHash, error) {
	return s.packages.ListPackageHashes(ctx, ids)
}

func (s *PackageService) HasEditPermission(ctx context.Context, meta *domain.PackageMeta, actor domain.AccountID) (bool, error) {
	return s.perms.HasEditPermission(ctx, meta, actor)
}
