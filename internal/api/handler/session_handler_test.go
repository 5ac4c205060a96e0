package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/modhaven/modhaven/internal/api/middleware"
	"github.com/modhaven/modhaven/internal/core/domain"
	"github.com/modhaven/modhaven/internal/core/ports"
)

type recordingRevoker struct {
	tokenID   string
	expiresAt time.Time
	calls     int
}

func (r *recordingRevoker) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.tokenID = tokenID
	r.expiresAt = expiresAt
	r.calls++
	return nil
}

func TestSessionHandler_Get(t *testing.T) {
	handler := NewSessionHandler(&recordingRevoker{})

	c, rec := newTestContext(http.MethodGet, "/v1/session", "")
	if err := handler.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp ports.PublicAccount
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ID != "1" || resp.Username != "modder" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestSessionHandler_Get_NoActor(t *testing.T) {
	handler := NewSessionHandler(&recordingRevoker{})

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/session", nil), httptest.NewRecorder())

	err := handler.Get(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestSessionHandler_Delete_RevokesToken(t *testing.T) {
	revoker := &recordingRevoker{}
	handler := NewSessionHandler(revoker)

	exp := time.Now().Add(time.Hour)
	c, rec := newTestContext(http.MethodDelete, "/v1/session", "")
	c.Set(middleware.TokenIDKey, "jti-1")
	c.Set(middleware.TokenExpKey, exp)

	if err := handler.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if revoker.tokenID != "jti-1" || !revoker.expiresAt.Equal(exp) {
		t.Fatalf("unexpected revocation: %q %v", revoker.tokenID, revoker.expiresAt)
	}
}

func TestSessionHandler_Delete_NoTokenIDIsNoop(t *testing.T) {
	revoker := &recordingRevoker{}
	handler := NewSessionHandler(revoker)

	c, rec := newTestContext(http.MethodDelete, "/v1/session", "")
	c.Set(middleware.ActorKey, &domain.Account{ID: "1"})

	if err := handler.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if revoker.calls != 0 {
		t.Error("revoker must not be called without a jti")
	}
}
