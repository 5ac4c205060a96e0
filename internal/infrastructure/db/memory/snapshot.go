package memory

import (
	"encoding/json"
	"os"

	"github.com/modhaven/modhaven/internal/core/domain"
)

// snapshot is the on-disk schema of the development data file.
type snapshot struct {
	Packages      []domain.PackageMeta `json:"packages"`
	Accounts      []domain.Account     `json:"accounts"`
	Namespaces    []domain.Namespace   `json:"namespaces"`
	LatestAccount int                  `json:"latest_account"`
}

// load reads the snapshot file. A missing or unreadable file starts empty;
// the file can simply be deleted to reset development state.
func (s *Store) load() {
	raw, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		return
	}

	var data snapshot
	if err := json.Unmarshal(raw, &data); err != nil {
		s.logger.Warn().Err(err).Str("path", s.snapshotPath).Msg("ignoring corrupt snapshot")
		return
	}

	s.packages = data.Packages
	s.accounts = data.Accounts
	s.namespaces = data.Namespaces
	s.latestAccount = data.LatestAccount
}

// save rewrites the snapshot file. Persistence is best effort; failures are
// logged and the in-memory state remains authoritative. Callers must hold
// the write lock.
func (s *Store) save() {
	if s.snapshotPath == "" {
		return
	}

	data := snapshot{
		Packages:      s.packages,
		Accounts:      s.accounts,
		Namespaces:    s.namespaces,
		LatestAccount: s.latestAccount,
	}

	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Error().Err(err).Msg("snapshot marshal failed")
		return
	}
	if err := os.WriteFile(s.snapshotPath, raw, 0o644); err != nil {
		s.logger.Error().Err(err).Str("path", s.snapshotPath).Msg("snapshot write failed")
	}
}
