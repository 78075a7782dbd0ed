package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ndenisov/authd/internal/util"
)

const codeByteLength = 32

// VerificationService issues and checks single-use password-reset codes.
type VerificationService struct {
	codes   CodeStorage
	codeTTL time.Duration
}

func NewVerificationService(cfg *util.VerificationConfig, codes CodeStorage) *VerificationService {
	return &VerificationService{
		codes:   codes,
		codeTTL: cfg.CodeTTL,
	}
}

// Issue generates a random code and stores it under the email, overwriting
// any code issued earlier for the same address.
func (vs *VerificationService) Issue(ctx context.Context, email string) (string, error) {
	raw := make([]byte, codeByteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	code := hex.EncodeToString(raw)

	if err := vs.codes.Set(ctx, email, code, vs.codeTTL); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}
	return code, nil
}

// Code returns the stored code for the email, "" when none is on file.
func (vs *VerificationService) Code(ctx context.Context, email string) (string, error) {
	code, err := vs.codes.Get(ctx, email)
	if err != nil {
		return "", fmt.Errorf("get verification code: %w", err)
	}
	return code, nil
}

// Consume reports whether the supplied code matches the stored one. A
// missing code and a wrong code are indistinguishable to the caller. The
// entry is not deleted here; deletion is the caller's responsibility.
func (vs *VerificationService) Consume(ctx context.Context, email, suppliedCode string) (bool, error) {
	stored, err := vs.Code(ctx, email)
	if err != nil {
		return false, err
	}
	if stored == "" || len(stored) != len(suppliedCode) {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(suppliedCode)) == 1, nil
}

func (vs *VerificationService) Delete(ctx context.Context, email string) error {
	if err := vs.codes.Delete(ctx, email); err != nil {
		return fmt.Errorf("delete verification code: %w", err)
	}
	return nil
}
