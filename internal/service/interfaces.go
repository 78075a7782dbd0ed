package service

import (
	"context"
	"time"
)

// CodeStorage is the key-value cache behind the verification-code flow.
// Values are opaque strings keyed by email address.
type CodeStorage interface {
	Set(ctx context.Context, email, code string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}

// Mailer delivers a message best-effort; implementations must not block the
// caller on transport failures.
type Mailer interface {
	Send(to, subject, htmlBody string)
}
