package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/ndenisov/authd/internal/models"
	"github.com/ndenisov/authd/internal/storage"
)

func strPtr(s string) *string { return &s }

func seedSessions(t *testing.T, m *InMemorySessionManager) {
	t.Helper()
	ctx := context.Background()
	for _, s := range []models.RefreshSession{
		{UserID: "u1", UserAgent: "ua-1", IPAddress: "1.1.1.1", RefreshToken: "t1"},
		{UserID: "u1", UserAgent: "ua-2", IPAddress: "2.2.2.2", RefreshToken: "t2"},
		{UserID: "u2", UserAgent: "ua-1", IPAddress: "1.1.1.1", RefreshToken: "t3"},
	} {
		if _, err := m.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}
}

func TestFindSessionsByFilter(t *testing.T) {
	m := NewSessionRepository()
	seedSessions(t, m)
	ctx := context.Background()

	all, err := m.FindSessions(ctx, storage.SessionFilter{})
	if err != nil {
		t.Fatalf("FindSessions: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all sessions = %d, want 3", len(all))
	}

	byUser, _ := m.FindSessions(ctx, storage.SessionFilter{UserID: strPtr("u1")})
	if len(byUser) != 2 {
		t.Errorf("u1 sessions = %d, want 2", len(byUser))
	}

	byDevice, _ := m.FindSessions(ctx, storage.SessionFilter{
		UserID:    strPtr("u1"),
		UserAgent: strPtr("ua-1"),
		IPAddress: strPtr("1.1.1.1"),
	})
	if len(byDevice) != 1 || byDevice[0].RefreshToken != "t1" {
		t.Errorf("device filter returned %v", byDevice)
	}

	byToken, _ := m.FindSessions(ctx, storage.SessionFilter{RefreshToken: strPtr("t3")})
	if len(byToken) != 1 || byToken[0].UserID != "u2" {
		t.Errorf("token filter returned %v", byToken)
	}
}

func TestUpdateSessionByUser(t *testing.T) {
	m := NewSessionRepository()
	ctx := context.Background()

	if _, err := m.UpdateSessionByUser(ctx, "u1", "new-token"); !errors.Is(err, storage.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}

	if _, err := m.CreateSession(ctx, models.RefreshSession{UserID: "u1", RefreshToken: "old"}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	updated, err := m.UpdateSessionByUser(ctx, "u1", "new-token")
	if err != nil {
		t.Fatalf("UpdateSessionByUser: %v", err)
	}
	if updated.RefreshToken != "new-token" {
		t.Errorf("RefreshToken = %q, want %q", updated.RefreshToken, "new-token")
	}
}

func TestDeleteSessions(t *testing.T) {
	m := NewSessionRepository()
	seedSessions(t, m)
	ctx := context.Background()

	// Delete one device's session.
	fp := models.Fingerprint{UserAgent: "ua-1", IPAddress: "1.1.1.1"}
	if err := m.DeleteSessions(ctx, "u1", &fp); err != nil {
		t.Fatalf("DeleteSessions: %v", err)
	}
	remaining, _ := m.FindSessions(ctx, storage.SessionFilter{UserID: strPtr("u1")})
	if len(remaining) != 1 || remaining[0].UserAgent != "ua-2" {
		t.Errorf("u1 sessions after device delete = %v", remaining)
	}

	// u2's session with the same fingerprint is untouched.
	other, _ := m.FindSessions(ctx, storage.SessionFilter{UserID: strPtr("u2")})
	if len(other) != 1 {
		t.Errorf("u2 sessions = %d, want 1", len(other))
	}

	// Nil fingerprint wipes everything for the user.
	if err := m.DeleteSessions(ctx, "u1", nil); err != nil {
		t.Fatalf("DeleteSessions all: %v", err)
	}
	remaining, _ = m.FindSessions(ctx, storage.SessionFilter{UserID: strPtr("u1")})
	if len(remaining) != 0 {
		t.Errorf("u1 sessions after full delete = %d, want 0", len(remaining))
	}

	// Deleting nothing is fine.
	if err := m.DeleteSessions(ctx, "u1", nil); err != nil {
		t.Fatalf("repeated DeleteSessions: %v", err)
	}
}
