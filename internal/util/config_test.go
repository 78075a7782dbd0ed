package util

import (
	"testing"
	"time"
)

func TestParseDurationOrDefault(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	if d := parseDurationOrDefault("TEST_DURATION", time.Minute); d != 90*time.Second {
		t.Errorf("d = %s, want 90s", d)
	}

	t.Setenv("TEST_DURATION", "not-a-duration")
	if d := parseDurationOrDefault("TEST_DURATION", time.Minute); d != time.Minute {
		t.Errorf("d = %s, want default 1m", d)
	}

	if d := parseDurationOrDefault("TEST_DURATION_UNSET", time.Hour); d != time.Hour {
		t.Errorf("d = %s, want default 1h", d)
	}
}

// Lifetimes are commonly configured as bare seconds; they must not silently
// fall back to the defaults.
func TestParseDurationAcceptsBareSeconds(t *testing.T) {
	t.Setenv("TEST_DURATION", "900")
	if d := parseDurationOrDefault("TEST_DURATION", time.Minute); d != 15*time.Minute {
		t.Errorf("d = %s, want 15m", d)
	}
}

func TestNewTokenConfigBareSecondTTLs(t *testing.T) {
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_TOKEN_SECRET", "refresh-secret")
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "900")
	t.Setenv("JWT_REFRESH_TOKEN_TTL", "86400")

	cfg := NewTokenConfig()
	if cfg.AccessTTL != 15*time.Minute {
		t.Errorf("AccessTTL = %s, want 15m", cfg.AccessTTL)
	}
	if cfg.RefreshTTL != 24*time.Hour {
		t.Errorf("RefreshTTL = %s, want 24h", cfg.RefreshTTL)
	}
}

func TestNewServerConfigDefaults(t *testing.T) {
	cfg := NewServerConfig()
	if cfg.ServerAddr == "" {
		t.Error("ServerAddr is empty")
	}
	if cfg.OpTimeout <= 0 {
		t.Error("OpTimeout must be positive")
	}
}

func TestNewVerificationConfigDefaults(t *testing.T) {
	cfg := NewVerificationConfig()
	if cfg.CodeTTL <= 0 {
		t.Error("CodeTTL must be positive")
	}

	t.Setenv("VERIFICATION_CODE_TTL", "30m")
	cfg = NewVerificationConfig()
	if cfg.CodeTTL != 30*time.Minute {
		t.Errorf("CodeTTL = %s, want 30m", cfg.CodeTTL)
	}
}
