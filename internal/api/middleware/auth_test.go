package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/modhaven/modhaven/internal/core/domain"
	"github.com/modhaven/modhaven/internal/core/ports"
)

const testSecret = "test-secret"

type stubAccounts struct {
	account      *domain.Account
	lastIdentity ports.LoginIdentity
}

func (s *stubAccounts) GetOrCreate(_ context.Context, identity ports.LoginIdentity) (*domain.Account, error) {
	s.lastIdentity = identity
	return s.account, nil
}

func (s *stubAccounts) Get(context.Context, domain.AccountID) (*domain.Account, error) {
	return s.account, nil
}

func (s *stubAccounts) GetByName(context.Context, string) (*domain.Account, error) {
	return s.account, nil
}

func (s *stubAccounts) UpdateUsername(context.Context, *domain.Account, string) (*domain.Account, error) {
	return s.account, nil
}

func (s *stubAccounts) SetBan(context.Context, *domain.Account, domain.AccountID, bool) error {
	return nil
}

func (s *stubAccounts) NameMap(context.Context, []domain.AccountID) (map[domain.AccountID]string, error) {
	return nil, nil
}

type stubRevoker struct {
	revoked map[string]bool
	queried []string
}

func (s *stubRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.queried = append(s.queried, tokenID)
	return s.revoked[tokenID], nil
}

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims *Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}
	return signed
}

// perform runs a request through Auth and a capturing terminal handler.
func perform(accounts ports.AccountService, revoked TokenRevoker, authHeader string) (echo.Context, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	handler := Auth(testSecret, accounts, revoked)(func(c echo.Context) error {
		return nil
	})
	return c, handler(c)
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if httpErr.Code != want {
		t.Fatalf("expected status %d, got %d (%v)", want, httpErr.Code, httpErr.Message)
	}
}

func TestAuth_ValidToken(t *testing.T) {
	accounts := &stubAccounts{account: &domain.Account{ID: "1", Username: "modder"}}
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, jwt.SigningMethodHS256, testSecret, &Claims{
		Username: "modder",
		Avatar:   "avatar-hash",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "discord-1",
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	c, err := perform(accounts, &stubRevoker{}, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	actor, ok := c.Get(ActorKey).(*domain.Account)
	if !ok || actor.ID != "1" {
		t.Errorf("actor not injected: %v", c.Get(ActorKey))
	}
	if got := c.Get(TokenIDKey); got != "jti-1" {
		t.Errorf("token id not injected: %v", got)
	}
	if got, ok := c.Get(TokenExpKey).(time.Time); !ok || !got.Equal(exp) {
		t.Errorf("token exp not injected: %v", c.Get(TokenExpKey))
	}
	if accounts.lastIdentity.DiscordID != "discord-1" || accounts.lastIdentity.Username != "modder" {
		t.Errorf("identity not resolved from claims: %+v", accounts.lastIdentity)
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	_, err := perform(&stubAccounts{}, &stubRevoker{}, "")
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestAuth_MalformedHeader(t *testing.T) {
	_, err := perform(&stubAccounts{}, &stubRevoker{}, "Token abc")
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestAuth_WrongSecret(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, "other-secret", &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "discord-1"},
	})
	_, err := perform(&stubAccounts{}, &stubRevoker{}, "Bearer "+token)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestAuth_WrongSigningMethod(t *testing.T) {
	// Correct secret, but the middleware only accepts HS256.
	token := signToken(t, jwt.SigningMethodHS512, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "discord-1"},
	})
	_, err := perform(&stubAccounts{}, &stubRevoker{}, "Bearer "+token)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestAuth_MissingSubject(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, testSecret, &Claims{Username: "modder"})
	_, err := perform(&stubAccounts{}, &stubRevoker{}, "Bearer "+token)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestAuth_ExpiredToken(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "discord-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	_, err := perform(&stubAccounts{}, &stubRevoker{}, "Bearer "+token)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestAuth_RevokedToken(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "discord-1", ID: "jti-1"},
	})
	revoker := &stubRevoker{revoked: map[string]bool{"jti-1": true}}

	_, err := perform(&stubAccounts{}, revoker, "Bearer "+token)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestAuth_TokenWithoutIDSkipsRevocationCheck(t *testing.T) {
	accounts := &stubAccounts{account: &domain.Account{ID: "1"}}
	token := signToken(t, jwt.SigningMethodHS256, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "discord-1"},
	})
	revoker := &stubRevoker{}

	if _, err := perform(accounts, revoker, "Bearer "+token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(revoker.queried) != 0 {
		t.Errorf("revoker must not be consulted without a jti, got %v", revoker.queried)
	}
}

func TestAuth_NilRevoker(t *testing.T) {
	accounts := &stubAccounts{account: &domain.Account{ID: "1"}}
	token := signToken(t, jwt.SigningMethodHS256, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "discord-1", ID: "jti-1"},
	})

	if _, err := perform(accounts, nil, "Bearer "+token); err != nil {
		t.Fatalf("revocation must be optional: %v", err)
	}
}

func TestAuth_BannedAccount(t *testing.T) {
	accounts := &stubAccounts{account: &domain.Account{ID: "1", Banned: true}}
	token := signToken(t, jwt.SigningMethodHS256, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "discord-1"},
	})

	_, err := perform(accounts, &stubRevoker{}, "Bearer "+token)
	if err != domain.ErrBanned {
		t.Fatalf("expected ErrBanned, got %v", err)
	}
}

func TestSiteAdmin(t *testing.T) {
	e := echo.New()
	run := func(actor *domain.Account) error {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if actor != nil {
			c.Set(ActorKey, actor)
		}
		return SiteAdmin()(func(echo.Context) error { return nil })(c)
	}

	if err := run(&domain.Account{ID: "1", Admin: true}); err != nil {
		t.Errorf("site admin must pass: %v", err)
	}
	assertStatus(t, run(&domain.Account{ID: "1"}), http.StatusForbidden)
	assertStatus(t, run(nil), http.StatusForbidden)
}
