package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/modhaven/modhaven/internal/api/metrics"
	"github.com/modhaven/modhaven/internal/core/domain"
	"github.com/modhaven/modhaven/internal/core/ports"
)

// AccountService implements account use cases. Accounts are created on first
// login and never hard-deleted; banning is handled as a soft flag.
type AccountService struct {
	accounts ports.AccountRepository
	logger   zerolog.Logger
}

func NewAccountService(accounts ports.AccountRepository, logger zerolog.Logger) *AccountService {
	return &AccountService{accounts: accounts, logger: logger}
}

func (s *AccountService) GetOrCreate(ctx context.Context, identity ports.LoginIdentity) (*domain.Account, error) {
	account, err := s.accounts.FindAccountByDiscordID(ctx, identity.DiscordID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	account = &domain.Account{
		Username:           identity.Username,
		NormalizedUsername: domain.NormalizeUsername(identity.Username),
		DiscordID:          identity.DiscordID,
		Avatar:             identity.Avatar,
	}

	id, err := s.accounts.CreateAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	account.ID = id
	metrics.AccountsCreatedTotal.Inc()

	s.logger.Info().Str("account_id", string(id)).Str("username", identity.Username).Msg("account created on first login")
	return account, nil
}

func (s *AccountService) Get(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	return s.accounts.FindAccount(ctx, id)
}

func (s *AccountService) GetByName(ctx context.Context, name string) (*domain.Account, error) {
	return s.accounts.FindAccountByName(ctx, domain.NormalizeUsername(name))
}

func (s *AccountService) UpdateUsername(ctx context.Context, actor *domain.Account, username string) (*domain.Account, error) {
	if username == actor.Username {
		return actor, nil
	}
	if !domain.ValidUsername(username) {
		return nil, domain.ErrInvalidUsername
	}

	if err := s.accounts.PatchAccount(ctx, actor.ID, ports.AccountPatch{Username: &username}); err != nil {
		return nil, err
	}

	return s.accounts.FindAccount(ctx, actor.ID)
}

func (s *AccountService) SetBan(ctx context.Context, actor *domain.Account, target domain.AccountID, banned bool) error {
	if !actor.Admin {
		metrics.PermissionDenialsTotal.WithLabelValues("set_ban").Inc()
		return domain.ErrPermissionDenied
	}

	if err := s.accounts.PatchAccount(ctx, target, ports.AccountPatch{Banned: &banned}); err != nil {
		return err
	}
	s.logger.Info().Str("account_id", string(target)).Bool("banned", banned).Msg("ban flag updated")
	return nil
}

func (s *AccountService) NameMap(ctx context.Context, ids []domain.AccountID) (map[domain.AccountID]string, error) {
	return s.accounts.AccountNameMap(ctx, ids)
}
