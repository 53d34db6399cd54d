package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"cinepick/handlers"
	"cinepick/internal/auth"
	"cinepick/models"
	"cinepick/services/sessions"
)

type fakeUserChecker struct {
	exists bool
	err    error
	calls  int
}

func (f *fakeUserChecker) UserExists(ctx context.Context, userID int) (bool, error) {
	f.calls++
	return f.exists, f.err
}

type fakeSessionService struct {
	session    models.Session
	createErr  error
	created    []int
	revoked    []string
	revokeErr  error
	revokedIDs []int
}

func (f *fakeSessionService) Create(userID int) (models.Session, error) {
	f.created = append(f.created, userID)
	return f.session, f.createErr
}

func (f *fakeSessionService) Revoke(token string) error {
	f.revoked = append(f.revoked, token)
	return f.revokeErr
}

func (f *fakeSessionService) RevokeUser(userID int) error {
	f.revokedIDs = append(f.revokedIDs, userID)
	return nil
}

type fakeReleaser struct {
	released []string
}

func (f *fakeReleaser) ReleaseOwner(owner string) {
	f.released = append(f.released, owner)
}

func withUser(r *http.Request, userID int, token string) *http.Request {
	ctx := context.WithValue(r.Context(), auth.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, auth.ContextKeySession, models.Session{Token: token, UserID: userID})
	return r.WithContext(ctx)
}

func loginRequest(t *testing.T, body any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))
}

func TestLogin_Success(t *testing.T) {
	sessionsSvc := &fakeSessionService{session: models.Session{Token: "tok-1", UserID: 42}}
	handler := handlers.NewAuthHandler(&fakeUserChecker{exists: true}, sessionsSvc, nil)

	rec := httptest.NewRecorder()
	handler.Login(rec, loginRequest(t, map[string]any{"userId": 42}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp handlers.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token != "tok-1" || resp.UserID != 42 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(sessionsSvc.created) != 1 || sessionsSvc.created[0] != 42 {
		t.Errorf("expected one session for 42, got %v", sessionsSvc.created)
	}
}

func TestLogin_StringUserID(t *testing.T) {
	sessionsSvc := &fakeSessionService{session: models.Session{Token: "tok-1", UserID: 7}}
	handler := handlers.NewAuthHandler(&fakeUserChecker{exists: true}, sessionsSvc, nil)

	rec := httptest.NewRecorder()
	handler.Login(rec, loginRequest(t, map[string]any{"userId": "7"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	sessionsSvc := &fakeSessionService{}
	handler := handlers.NewAuthHandler(&fakeUserChecker{exists: false}, sessionsSvc, nil)

	rec := httptest.NewRecorder()
	handler.Login(rec, loginRequest(t, map[string]any{"userId": 99}))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(sessionsSvc.created) != 0 {
		t.Error("no session may be created for an unknown id")
	}
}

func TestLogin_BackendDown(t *testing.T) {
	handler := handlers.NewAuthHandler(&fakeUserChecker{err: errors.New("connection refused")}, &fakeSessionService{}, nil)

	rec := httptest.NewRecorder()
	handler.Login(rec, loginRequest(t, map[string]any{"userId": 42}))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestLogin_RejectsNonNumericID(t *testing.T) {
	handler := handlers.NewAuthHandler(&fakeUserChecker{exists: true}, &fakeSessionService{}, nil)

	for _, id := range []any{"abc", -3, 4.5, nil} {
		rec := httptest.NewRecorder()
		handler.Login(rec, loginRequest(t, map[string]any{"userId": id}))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("id %v: expected 400, got %d", id, rec.Code)
		}
	}
}

func TestLogout_RevokesAndReleasesCarousels(t *testing.T) {
	sessionsSvc := &fakeSessionService{}
	releaser := &fakeReleaser{}
	handler := handlers.NewAuthHandler(&fakeUserChecker{}, sessionsSvc, releaser)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(sessionsSvc.revoked) != 1 || sessionsSvc.revoked[0] != "tok-1" {
		t.Errorf("expected tok-1 revoked, got %v", sessionsSvc.revoked)
	}
	if len(releaser.released) != 1 || releaser.released[0] != "tok-1" {
		t.Errorf("expected carousels released for tok-1, got %v", releaser.released)
	}
}

func TestLogout_ExpiredSessionStillSucceeds(t *testing.T) {
	sessionsSvc := &fakeSessionService{revokeErr: fmt.Errorf("revoke: %w", sessions.ErrSessionNotFound)}
	handler := handlers.NewAuthHandler(&fakeUserChecker{}, sessionsSvc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer tok-gone")
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("a missing session must not fail logout, got %d", rec.Code)
	}
}

func TestLogout_MissingToken(t *testing.T) {
	handler := handlers.NewAuthHandler(&fakeUserChecker{}, &fakeSessionService{}, nil)

	rec := httptest.NewRecorder()
	handler.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
