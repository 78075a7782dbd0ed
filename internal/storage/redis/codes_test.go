package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestCodeStorage(t *testing.T) (*CodeStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCodeStorage(client), mr
}

func TestCodeStorageRoundTrip(t *testing.T) {
	s, _ := newTestCodeStorage(t)
	ctx := context.Background()

	if err := s.Set(ctx, "a@b.com", "code-1", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	code, err := s.Get(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if code != "code-1" {
		t.Errorf("code = %q, want %q", code, "code-1")
	}

	// A second issue for the same address overwrites the first.
	if err := s.Set(ctx, "a@b.com", "code-2", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	code, _ = s.Get(ctx, "a@b.com")
	if code != "code-2" {
		t.Errorf("code = %q, want %q", code, "code-2")
	}

	if err := s.Delete(ctx, "a@b.com"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	code, err = s.Get(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if code != "" {
		t.Errorf("code = %q, want empty", code)
	}
}

func TestCodeStorageMissingKeyIsNotAnError(t *testing.T) {
	s, _ := newTestCodeStorage(t)

	code, err := s.Get(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if code != "" {
		t.Errorf("code = %q, want empty", code)
	}
}

func TestCodeStorageTTL(t *testing.T) {
	s, mr := newTestCodeStorage(t)
	ctx := context.Background()

	if err := s.Set(ctx, "a@b.com", "code-1", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	code, err := s.Get(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if code != "" {
		t.Errorf("code survived past its TTL: %q", code)
	}
}
