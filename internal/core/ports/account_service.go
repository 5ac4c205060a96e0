package ports

import (
	"context"

	"github.com/modhaven/modhaven/internal/core/domain"
)

// LoginIdentity is the upstream identity presented on login. Token exchange
// happens outside the core; by the time this arrives it is trusted.
type LoginIdentity struct {
	DiscordID string
	Username  string
	Avatar    string
}

// PublicAccount is the projection of an account safe to return to clients.
type PublicAccount struct {
	ID       domain.AccountID `json:"id"`
	Username string           `json:"username"`
	Avatar   string           `json:"avatar"`
	Admin    bool             `json:"admin,omitempty"`
	Banned   bool             `json:"banned,omitempty"`
}

// IntoPublicAccount projects an account for client consumption.
func IntoPublicAccount(a *domain.Account) PublicAccount {
	return PublicAccount{
		ID:       a.ID,
		Username: a.Username,
		Avatar:   a.Avatar,
		Admin:    a.Admin,
		Banned:   a.Banned,
	}
}

// AccountService defines use-case operations on accounts.
type AccountService interface {
	// GetOrCreate resolves the account for an upstream identity, creating
	// it on first login.
	GetOrCreate(ctx context.Context, identity LoginIdentity) (*domain.Account, error)
	Get(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	GetByName(ctx context.Context, name string) (*domain.Account, error)
	// UpdateUsername renames the actor's account, enforcing the username
	// character set and uniqueness of the normalized name.
	UpdateUsername(ctx context.Context, actor *domain.Account, username string) (*domain.Account, error)
	// SetBan toggles the banned flag on target. Site admins only.
	SetBan(ctx context.Context, actor *domain.Account, target domain.AccountID, banned bool) error
	// NameMap resolves ids to usernames for display.
	NameMap(ctx context.Context, ids []domain.AccountID) (map[domain.AccountID]string, error)
}
