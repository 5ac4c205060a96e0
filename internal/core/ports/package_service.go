package ports

import (
	"context"

	"github.com/modhaven/modhaven/internal/core/domain"
)

// ListPackagesInput carries the list endpoint's filters. Zero values mean
// "no filter".
type ListPackagesInput struct {
	Category string
	// Name filters by case-insensitive substring on name or long name.
	Name string
	// Creator scopes the listing to one uploader.
	Creator domain.AccountID
	// IncludeHidden also returns hidden packages; listings default to
	// visible packages only.
	IncludeHidden bool
	Sort          SortMethod
	Skip          int
	Limit         int
}

// PackageService defines use-case operations on package metadata. Archive
// and preview blobs are handled elsewhere; this service owns the records.
type PackageService interface {
	Get(ctx context.Context, id string) (*domain.PackageMeta, error)
	List(ctx context.Context, input ListPackagesInput) ([]domain.PackageMeta, error)
	// Upsert creates or updates a package record. It enforces edit
	// permission across every record matching the id or past ids, the
	// registered-namespace membership and casing rules for new ids, and
	// the daily new-package cap. Records superseded by a rename are
	// deleted.
	Upsert(ctx context.Context, actor *domain.Account, meta *domain.PackageMeta) (*domain.PackageMeta, error)
	// Patch updates whitelisted record fields (currently only "hidden").
	Patch(ctx context.Context, actor *domain.Account, id string, patch map[string]any) (*domain.PackageMeta, error)
	Delete(ctx context.Context, actor *domain.Account, id string) error
	// Hashes returns id/hash pairs for the requested ids.
	Hashes(ctx context.Context, ids []string) ([]PackageHash, error)
	// HasEditPermission reports whether actor may modify meta.
	HasEditPermission(ctx context.Context, meta *domain.PackageMeta, actor domain.AccountID) (bool, error)
}
