// Package memory implements the storage contract with linear scans over
// in-process slices. It is the reference engine: the database engine must be
// behaviorally indistinguishable from it. An optional JSON snapshot keeps
// data across restarts in development.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/modhaven/modhaven/internal/api/metrics"
	"github.com/modhaven/modhaven/internal/core/domain"
	"github.com/modhaven/modhaven/internal/core/ports"
	"github.com/modhaven/modhaven/internal/core/query"
)

// Store holds all records behind a single RWMutex. Scans are O(n), which is
// fine for the data sizes this engine is meant for.
type Store struct {
	mu sync.RWMutex

	namespaces    []domain.Namespace
	packages      []domain.PackageMeta
	accounts      []domain.Account
	latestAccount int

	snapshotPath string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewStore creates a Store. When snapshotPath is non-empty, existing data is
// loaded from it and every mutation rewrites it.
func NewStore(snapshotPath string, logger zerolog.Logger) *Store {
	s := &Store{snapshotPath: snapshotPath, logger: logger, now: time.Now}
	if snapshotPath != "" {
		s.load()
	}
	return s
}

// --- namespaces ---

func (s *Store) FindNamespace(_ context.Context, prefix string) (*domain.Namespace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.namespaces {
		if s.namespaces[i].Prefix == prefix {
			ns := cloneNamespace(s.namespaces[i])
			return &ns, nil
		}
	}
	return nil, domain.ErrNamespaceNotFound
}

func (s *Store) ListRelatedNamespaces(_ context.Context, prefix string) ([]domain.Namespace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(prefix)
	var related []domain.Namespace
	for i := range s.namespaces {
		nsLower := strings.ToLower(s.namespaces[i].Prefix)
		if strings.HasPrefix(lower, nsLower) || strings.HasPrefix(nsLower, lower) {
			related = append(related, cloneNamespace(s.namespaces[i]))
		}
	}
	return related, nil
}

func (s *Store) ListGoverningNamespaces(_ context.Context, packageID string) ([]domain.Namespace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(packageID)
	var governing []domain.Namespace
	for i := range s.namespaces {
		ns := &s.namespaces[i]
		if ns.Registered && strings.HasPrefix(lower, strings.ToLower(ns.Prefix)) {
			governing = append(governing, cloneNamespace(*ns))
		}
	}
	return governing, nil
}

func (s *Store) ListAccountNamespaces(_ context.Context, accountID domain.AccountID) ([]domain.Namespace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var memberOf []domain.Namespace
	for i := range s.namespaces {
		if s.namespaces[i].Member(accountID) != nil {
			memberOf = append(memberOf, cloneNamespace(s.namespaces[i]))
		}
	}
	return memberOf, nil
}

func (s *Store) InsertNamespace(_ context.Context, ns *domain.Namespace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.namespaces {
		if s.namespaces[i].Prefix == ns.Prefix {
			return domain.ErrNamespaceConflict
		}
	}
	s.namespaces = append(s.namespaces, cloneNamespace(*ns))
	s.save()
	return nil
}

func (s *Store) UpdateNamespaceMembers(_ context.Context, prefix string, updates domain.MemberUpdates) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.namespaces {
		if s.namespaces[i].Prefix == prefix {
			s.namespaces[i].Members = domain.ApplyMemberUpdates(s.namespaces[i].Members, updates)
			s.save()
			return nil
		}
	}
	return domain.ErrNamespaceNotFound
}

func (s *Store) SetNamespaceRegistered(_ context.Context, prefix string, registered bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.namespaces {
		if s.namespaces[i].Prefix == prefix {
			s.namespaces[i].Registered = registered
			s.save()
			return nil
		}
	}
	return domain.ErrNamespaceNotFound
}

func (s *Store) DeleteNamespace(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.namespaces {
		if s.namespaces[i].Prefix == prefix {
			// swap remove, order is irrelevant
			s.namespaces[i] = s.namespaces[len(s.namespaces)-1]
			s.namespaces = s.namespaces[:len(s.namespaces)-1]
			s.save()
			return nil
		}
	}
	return nil
}

// --- packages ---

func (s *Store) FindPackage(_ context.Context, id string) (*domain.PackageMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.packages {
		if s.packages[i].HasID(id) {
			meta := clonePackage(s.packages[i])
			return &meta, nil
		}
	}
	return nil, domain.ErrPackageNotFound
}

func (s *Store) FindPackagesByIDs(_ context.Context, ids []string) ([]domain.PackageMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []domain.PackageMeta
	for i := range s.packages {
		for _, id := range ids {
			if s.packages[i].HasID(id) {
				matches = append(matches, clonePackage(s.packages[i]))
				break
			}
		}
	}
	return matches, nil
}

func (s *Store) UpsertPackage(_ context.Context, meta *domain.PackageMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	for i := range s.packages {
		if s.packages[i].Package.ID == meta.Package.ID {
			stored := &s.packages[i]
			stored.Package = meta.Package
			stored.Defines = meta.Defines
			stored.Dependencies = meta.Dependencies
			stored.UpdatedDate = now

			// reflect storage-managed fields back to the caller
			meta.Creator = stored.Creator
			meta.CreationDate = stored.CreationDate
			meta.UpdatedDate = now
			meta.Hidden = stored.Hidden
			meta.Hash = stored.Hash

			s.save()
			return nil
		}
	}

	meta.CreationDate = now
	meta.UpdatedDate = now
	s.packages = append(s.packages, clonePackage(*meta))
	s.save()
	return nil
}

func (s *Store) PatchPackage(_ context.Context, id string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.packages {
		if s.packages[i].Package.ID != id {
			continue
		}
		for key, value := range patch {
			switch key {
			case "hidden":
				if hidden, ok := value.(bool); ok {
					s.packages[i].Hidden = hidden
				}
			case "hash":
				if hash, ok := value.(string); ok {
					s.packages[i].Hash = hash
					s.packages[i].UpdatedDate = s.now().UTC()
				}
			}
		}
		s.save()
		return nil
	}
	return domain.ErrPackageNotFound
}

func (s *Store) DeletePackages(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		for i := range s.packages {
			if s.packages[i].Package.ID == id {
				s.packages[i] = s.packages[len(s.packages)-1]
				s.packages = s.packages[:len(s.packages)-1]
				break
			}
		}
	}
	s.save()
	return nil
}

func (s *Store) ListPackages(_ context.Context, q query.Query, sortMethod ports.SortMethod, skip, limit int) ([]domain.PackageMeta, error) {
	timer := prometheus.NewTimer(metrics.PackageListDuration.WithLabelValues("memory"))
	defer timer.ObserveDuration()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.PackageMeta
	for i := range s.packages {
		if query.Evaluate(q, &s.packages[i]) {
			matched = append(matched, clonePackage(s.packages[i]))
		}
	}

	sortPackages(matched, sortMethod)

	if skip >= len(matched) {
		return nil, nil
	}
	end := len(matched)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return matched[skip:end], nil
}

func (s *Store) ListPackageHashes(_ context.Context, ids []string) ([]ports.PackageHash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hashes []ports.PackageHash
	for _, id := range ids {
		for i := range s.packages {
			if s.packages[i].HasID(id) {
				hashes = append(hashes, ports.PackageHash{ID: s.packages[i].Package.ID, Hash: s.packages[i].Hash})
				break
			}
		}
	}
	return hashes, nil
}

func (s *Store) CountPackagesByCreatorSince(_ context.Context, creator domain.AccountID, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for i := range s.packages {
		if s.packages[i].Creator == creator && !s.packages[i].CreationDate.Before(since) {
			count++
		}
	}
	return count, nil
}

// --- accounts ---

func (s *Store) CreateAccount(_ context.Context, account *domain.Account) (domain.AccountID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.accounts {
		if s.accounts[i].NormalizedUsername == account.NormalizedUsername {
			return "", domain.ErrAccountExists
		}
	}

	id := domain.AccountID(strconv.Itoa(s.latestAccount))
	s.latestAccount++

	stored := *account
	stored.ID = id
	s.accounts = append(s.accounts, stored)
	s.save()
	return id, nil
}

func (s *Store) FindAccount(_ context.Context, id domain.AccountID) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.accounts {
		if s.accounts[i].ID == id {
			account := s.accounts[i]
			return &account, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s *Store) FindAccountByDiscordID(_ context.Context, discordID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.accounts {
		if s.accounts[i].DiscordID == discordID {
			account := s.accounts[i]
			return &account, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s *Store) FindAccountByName(_ context.Context, name string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.accounts {
		if s.accounts[i].NormalizedUsername == name {
			account := s.accounts[i]
			return &account, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s *Store) PatchAccount(_ context.Context, id domain.AccountID, patch ports.AccountPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *domain.Account
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			target = &s.accounts[i]
			break
		}
	}
	if target == nil {
		return domain.ErrAccountNotFound
	}

	if patch.Username != nil {
		normalized := domain.NormalizeUsername(*patch.Username)
		for i := range s.accounts {
			if s.accounts[i].ID != id && s.accounts[i].NormalizedUsername == normalized {
				return domain.ErrAccountExists
			}
		}
		target.Username = *patch.Username
		target.NormalizedUsername = normalized
	}
	if patch.Banned != nil {
		target.Banned = *patch.Banned
	}

	s.save()
	return nil
}

func (s *Store) AccountNameMap(_ context.Context, ids []domain.AccountID) (map[domain.AccountID]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make(map[domain.AccountID]string, len(ids))
	for _, id := range ids {
		for i := range s.accounts {
			if s.accounts[i].ID == id {
				names[id] = s.accounts[i].Username
				break
			}
		}
	}
	return names, nil
}

// --- helpers ---

func cloneNamespace(ns domain.Namespace) domain.Namespace {
	ns.Members = append([]domain.Member(nil), ns.Members...)
	return ns
}

func clonePackage(meta domain.PackageMeta) domain.PackageMeta {
	if meta.Defines != nil {
		defines := *meta.Defines
		meta.Defines = &defines
	}
	if meta.Dependencies != nil {
		deps := *meta.Dependencies
		meta.Dependencies = &deps
	}
	return meta
}

func sortPackages(metas []domain.PackageMeta, method ports.SortMethod) {
	switch method {
	case ports.SortRecentlyUpdated:
		sort.SliceStable(metas, func(i, j int) bool {
			return metas[i].UpdatedDate.After(metas[j].UpdatedDate)
		})
	case ports.SortPackageID:
		sort.SliceStable(metas, func(i, j int) bool {
			return metas[i].Package.ID < metas[j].Package.ID
		})
	default:
		sort.SliceStable(metas, func(i, j int) bool {
			return metas[i].CreationDate.After(metas[j].CreationDate)
		})
	}
}
