package service

import (
	"errors"
	"testing"
	"time"

	"github.com/ndenisov/authd/internal/util"
)

func newTokenService(accessTTL, refreshTTL time.Duration) *TokenService {
	return NewTokenService(&util.TokenConfig{
		AccessSecret:  []byte("access-secret-for-tests"),
		AccessTTL:     accessTTL,
		RefreshSecret: []byte("refresh-secret-for-tests"),
		RefreshTTL:    refreshTTL,
	})
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	ts := newTokenService(15*time.Minute, 24*time.Hour)

	token, err := ts.IssueAccessToken("user-1", time.Now())
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if token.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("ExpiresIn = %d, want %d", token.ExpiresIn, int64((15*time.Minute).Seconds()))
	}

	subject, err := ts.VerifyAccessToken(token.Token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if subject != "user-1" {
		t.Errorf("subject = %q, want %q", subject, "user-1")
	}
}

func TestAccessAndRefreshSecretsAreIndependent(t *testing.T) {
	ts := newTokenService(15*time.Minute, 24*time.Hour)

	access, err := ts.IssueAccessToken("user-1", time.Now())
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	if _, err := ts.VerifyRefreshToken(access.Token); err == nil {
		t.Fatal("access token verified against the refresh secret")
	}

	refresh, err := ts.IssueRefreshToken("user-1", time.Now())
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	if _, err := ts.VerifyAccessToken(refresh.Token); err == nil {
		t.Fatal("refresh token verified against the access secret")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	ts := newTokenService(15*time.Minute, 24*time.Hour)

	past := time.Now().Add(-time.Hour)
	token, err := ts.IssueAccessToken("user-1", past)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	_, err = ts.VerifyAccessToken(token.Token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	ts := newTokenService(15*time.Minute, 24*time.Hour)

	token, err := ts.IssueAccessToken("user-1", time.Now())
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	tampered := token.Token + "x"
	if _, err := ts.VerifyAccessToken(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyGarbageToken(t *testing.T) {
	ts := newTokenService(15*time.Minute, 24*time.Hour)

	if _, err := ts.VerifyRefreshToken("not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}
