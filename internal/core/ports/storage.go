package ports

import (
	"context"
	"time"

	"github.com/modhaven/modhaven/internal/core/domain"
	"github.com/modhaven/modhaven/internal/core/query"
)

// SortMethod orders package listings.
type SortMethod int

const (
	SortCreationDate SortMethod = iota
	SortRecentlyUpdated
	SortPackageID
)

// SortMethodFromString maps the API's sort parameter to a SortMethod,
// defaulting to creation date.
func SortMethodFromString(s string) SortMethod {
	switch s {
	case "recently_updated":
		return SortRecentlyUpdated
	case "package_id":
		return SortPackageID
	default:
		return SortCreationDate
	}
}

// PackageHash pairs a package id with its archive hash.
type PackageHash struct {
	ID   string `json:"id"`
	Hash string `json:"hash,omitempty"`
}

// AccountPatch carries partial account updates. Nil fields are untouched.
// Setting Username also updates the normalized username.
type AccountPatch struct {
	Username *string
	Banned   *bool
}

// NamespaceRepository defines persistence operations for namespaces. Both
// engines must implement the case-insensitive comparison semantics the
// authority resolver depends on; the resolver itself never lives here.
type NamespaceRepository interface {
	// FindNamespace retrieves a namespace by exact prefix.
	FindNamespace(ctx context.Context, prefix string) (*domain.Namespace, error)
	// ListRelatedNamespaces returns every namespace whose prefix is in a
	// case-insensitive substring relationship with prefix, in either
	// direction. This materializes the candidate set for conflict
	// resolution.
	ListRelatedNamespaces(ctx context.Context, prefix string) ([]domain.Namespace, error)
	// ListGoverningNamespaces returns every registered namespace whose
	// prefix is a case-insensitive prefix of packageID.
	ListGoverningNamespaces(ctx context.Context, packageID string) ([]domain.Namespace, error)
	// ListAccountNamespaces returns every namespace the account belongs to,
	// including pending invites.
	ListAccountNamespaces(ctx context.Context, accountID domain.AccountID) ([]domain.Namespace, error)
	InsertNamespace(ctx context.Context, ns *domain.Namespace) error
	// UpdateNamespaceMembers applies updates to the stored member set.
	// Removals and invites commit before role changes are evaluated.
	UpdateNamespaceMembers(ctx context.Context, prefix string, updates domain.MemberUpdates) error
	SetNamespaceRegistered(ctx context.Context, prefix string, registered bool) error
	DeleteNamespace(ctx context.Context, prefix string) error
}

// PackageRepository defines persistence operations for package metadata.
type PackageRepository interface {
	// FindPackage retrieves a package by current or past id.
	FindPackage(ctx context.Context, id string) (*domain.PackageMeta, error)
	// FindPackagesByIDs retrieves every package whose current or past ids
	// intersect ids.
	FindPackagesByIDs(ctx context.Context, ids []string) ([]domain.PackageMeta, error)
	// UpsertPackage inserts meta or replaces the author-supplied fields of
	// the package with the same current id. Creation and update dates are
	// storage-managed.
	UpsertPackage(ctx context.Context, meta *domain.PackageMeta) error
	// PatchPackage sets top-level fields on a package record.
	PatchPackage(ctx context.Context, id string, patch map[string]any) error
	DeletePackages(ctx context.Context, ids []string) error
	// ListPackages filters with q, sorts, and pages. The memory engine
	// evaluates q by linear scan; the database engine translates it.
	ListPackages(ctx context.Context, q query.Query, sort SortMethod, skip, limit int) ([]domain.PackageMeta, error)
	// ListPackageHashes returns id/hash pairs for the requested ids.
	ListPackageHashes(ctx context.Context, ids []string) ([]PackageHash, error)
	// CountPackagesByCreatorSince counts packages created by creator at or
	// after since.
	CountPackagesByCreatorSince(ctx context.Context, creator domain.AccountID, since time.Time) (int64, error)
}

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	// CreateAccount inserts account and returns its assigned id.
	CreateAccount(ctx context.Context, account *domain.Account) (domain.AccountID, error)
	FindAccount(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	FindAccountByDiscordID(ctx context.Context, discordID string) (*domain.Account, error)
	// FindAccountByName looks an account up by normalized username.
	FindAccountByName(ctx context.Context, name string) (*domain.Account, error)
	PatchAccount(ctx context.Context, id domain.AccountID, patch AccountPatch) error
	// AccountNameMap resolves ids to usernames for display.
	AccountNameMap(ctx context.Context, ids []domain.AccountID) (map[domain.AccountID]string, error)
}

// Storage is the full adapter contract satisfied by both the in-memory
// linear-scan engine and the database-aggregation engine.
type Storage interface {
	NamespaceRepository
	PackageRepository
	AccountRepository
}
