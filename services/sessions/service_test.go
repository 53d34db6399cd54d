package sessions

import (
	"testing"
	"time"
)

// setupTestService creates a new sessions service for testing with a temp directory.
func setupTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(t.TempDir(), DefaultSessionDuration)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestNewService_DefaultDuration(t *testing.T) {
	svc, err := NewService(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if svc.sessionDuration != DefaultSessionDuration {
		t.Errorf("expected default duration %v, got %v", DefaultSessionDuration, svc.sessionDuration)
	}
}

func TestNewService_InMemoryOnly(t *testing.T) {
	svc, err := NewService("", DefaultSessionDuration)
	if err != nil {
		t.Fatalf("NewService with empty dir failed: %v", err)
	}
	if svc.path != "" {
		t.Error("expected empty path for in-memory service")
	}
}

func TestCreateAndValidate(t *testing.T) {
	svc := setupTestService(t)

	session, err := svc.Create(42)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected non-empty token")
	}
	if session.UserID != 42 {
		t.Errorf("expected user id 42, got %d", session.UserID)
	}

	got, err := svc.Validate(session.Token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if got.UserID != 42 {
		t.Errorf("expected user id 42, got %d", got.UserID)
	}
}

func TestValidate_EmptyToken(t *testing.T) {
	svc := setupTestService(t)
	if _, err := svc.Validate(""); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_UnknownToken(t *testing.T) {
	svc := setupTestService(t)
	if _, err := svc.Validate("nope"); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestValidate_ExpiredSession(t *testing.T) {
	svc, err := NewService(t.TempDir(), 1*time.Millisecond)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	session, err := svc.Create(7)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := svc.Validate(session.Token); err != ErrSessionExpired {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
	// Expired session is evicted.
	if _, err := svc.Validate(session.Token); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound after eviction, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	svc := setupTestService(t)

	session, err := svc.Create(9)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.Revoke(session.Token); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := svc.Validate(session.Token); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound after revoke, got %v", err)
	}
	if err := svc.Revoke(session.Token); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound on double revoke, got %v", err)
	}
}

func TestRevokeUser_RemovesAllSessions(t *testing.T) {
	svc := setupTestService(t)

	a, _ := svc.Create(5)
	b, _ := svc.Create(5)
	c, _ := svc.Create(6)

	if err := svc.RevokeUser(5); err != nil {
		t.Fatalf("RevokeUser failed: %v", err)
	}
	if _, err := svc.Validate(a.Token); err == nil {
		t.Error("expected first session revoked")
	}
	if _, err := svc.Validate(b.Token); err == nil {
		t.Error("expected second session revoked")
	}
	if _, err := svc.Validate(c.Token); err != nil {
		t.Errorf("expected other user's session to survive: %v", err)
	}
}

func TestPersistence_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewService(dir, DefaultSessionDuration)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	session, err := svc.Create(11)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	reloaded, err := NewService(dir, DefaultSessionDuration)
	if err != nil {
		t.Fatalf("NewService (reload) failed: %v", err)
	}
	got, err := reloaded.Validate(session.Token)
	if err != nil {
		t.Fatalf("Validate after reload failed: %v", err)
	}
	if got.UserID != 11 {
		t.Errorf("expected user id 11 after reload, got %d", got.UserID)
	}
}
