package service

import (
	"context"
	"testing"
	"time"

	"github.com/ndenisov/authd/internal/util"
)

func newVerificationFixture() (*VerificationService, *stubCodeStorage) {
	codes := newStubCodeStorage()
	return NewVerificationService(&util.VerificationConfig{CodeTTL: time.Minute}, codes), codes
}

func TestIssueGeneratesFreshCodes(t *testing.T) {
	vs, _ := newVerificationFixture()
	ctx := context.Background()

	first, err := vs.Issue(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(first) != 2*codeByteLength {
		t.Errorf("code length = %d, want %d hex chars", len(first), 2*codeByteLength)
	}

	second, err := vs.Issue(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if first == second {
		t.Error("two issued codes are identical")
	}

	// The second issue replaced the first.
	stored, _ := vs.Code(ctx, "a@b.com")
	if stored != second {
		t.Errorf("stored code = %q, want the latest one", stored)
	}
}

func TestConsumeMatchesOnlyTheStoredCode(t *testing.T) {
	vs, _ := newVerificationFixture()
	ctx := context.Background()

	code, err := vs.Issue(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	ok, err := vs.Consume(ctx, "a@b.com", code)
	if err != nil || !ok {
		t.Fatalf("Consume with right code: ok=%v err=%v", ok, err)
	}

	// Wrong code and missing code are indistinguishable.
	ok, err = vs.Consume(ctx, "a@b.com", "wrong")
	if err != nil || ok {
		t.Fatalf("Consume with wrong code: ok=%v err=%v", ok, err)
	}
	ok, err = vs.Consume(ctx, "nobody@example.com", code)
	if err != nil || ok {
		t.Fatalf("Consume with no code on file: ok=%v err=%v", ok, err)
	}

	// Consume does not delete; the entry stays until the caller removes it.
	stored, _ := vs.Code(ctx, "a@b.com")
	if stored != code {
		t.Error("Consume removed the stored code")
	}
	if err := vs.Delete(ctx, "a@b.com"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	stored, _ = vs.Code(ctx, "a@b.com")
	if stored != "" {
		t.Error("code survived Delete")
	}
}
