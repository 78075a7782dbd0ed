package models

import "time"

// Fingerprint identifies a client device by its request metadata. It is an
// opaque (user-agent, ip) pair, not a cryptographic identity: NAT and proxy
// changes will produce a different fingerprint for the same physical device.
type Fingerprint struct {
	UserAgent string `json:"user_agent"`
	IPAddress string `json:"ip_address"`
}

// RefreshSession is one active device session for one user. At most one
// record exists per (UserID, Fingerprint) pair; the orchestrator enforces
// that, not the store.
type RefreshSession struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	UserAgent    string    `json:"user_agent"`
	IPAddress    string    `json:"ip_address"`
	RefreshToken string    `json:"refresh_token"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Token is a signed credential together with its lifetime in seconds.
type Token struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	AccessToken  Token `json:"accessToken"`
	RefreshToken Token `json:"refreshToken"`
}
