package util

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//nolint:gochecknoglobals // here its ok
var once sync.Once

func init() {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
}

const (
	defaultServerAddr      = "localhost:8080"
	defaultWriteTimeout    = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultGracefulTimeout = 5 * time.Second
	defaultOpTimeout       = 5 * time.Second

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 24 * time.Hour

	defaultCodeTTL = 15 * time.Minute

	defaultSMTPPort        = 587
	defaultSMTPSendTimeout = 10 * time.Second

	JWTLeeWay = 5 * time.Second

	// BcryptCost matches the cost the user directory hashes with.
	BcryptCost = 10
)

type ServerConfig struct {
	ServerAddr      string
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
	OpTimeout       time.Duration
}

func NewServerConfig() *ServerConfig {
	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = defaultServerAddr
	}

	return &ServerConfig{
		ServerAddr:      addr,
		WriteTimeout:    parseDurationOrDefault("WRITE_TIMEOUT", defaultWriteTimeout),
		ReadTimeout:     parseDurationOrDefault("READ_TIMEOUT", defaultReadTimeout),
		IdleTimeout:     parseDurationOrDefault("IDLE_TIMEOUT", defaultIdleTimeout),
		GracefulTimeout: parseDurationOrDefault("GRACEFUL_TIMEOUT", defaultGracefulTimeout),
		OpTimeout:       parseDurationOrDefault("OP_TIMEOUT", defaultOpTimeout),
	}
}

// TokenConfig holds two independent (secret, lifetime) pairs: one for
// short-lived access tokens and one for refresh tokens.
type TokenConfig struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
}

func NewTokenConfig() *TokenConfig {
	accessSecret := os.Getenv("JWT_ACCESS_TOKEN_SECRET")
	if accessSecret == "" {
		log.Fatal("JWT_ACCESS_TOKEN_SECRET is not set")
	}
	refreshSecret := os.Getenv("JWT_REFRESH_TOKEN_SECRET")
	if refreshSecret == "" {
		log.Fatal("JWT_REFRESH_TOKEN_SECRET is not set")
	}
	return &TokenConfig{
		AccessSecret:  []byte(accessSecret),
		AccessTTL:     parseDurationOrDefault("JWT_ACCESS_TOKEN_TTL", defaultAccessTTL),
		RefreshSecret: []byte(refreshSecret),
		RefreshTTL:    parseDurationOrDefault("JWT_REFRESH_TOKEN_TTL", defaultRefreshTTL),
	}
}

// SMTPConfig describes the outgoing mail relay. SendTimeout caps one whole
// SMTP conversation, from dial to QUIT.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	SendTimeout time.Duration
}

func NewSMTPConfig() *SMTPConfig {
	port := defaultSMTPPort
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		} else {
			log.Printf("Invalid SMTP_PORT: %s, using default %d", portStr, defaultSMTPPort)
		}
	}

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = os.Getenv("SMTP_USERNAME")
	}

	return &SMTPConfig{
		Host:        os.Getenv("SMTP_HOST"),
		Port:        port,
		Username:    os.Getenv("SMTP_USERNAME"),
		Password:    os.Getenv("SMTP_PASSWORD"),
		From:        from,
		SendTimeout: parseDurationOrDefault("SMTP_SEND_TIMEOUT", defaultSMTPSendTimeout),
	}
}

// VerificationConfig bounds how long an issued reset code stays usable.
// The cache never expires entries on its own, so the TTL is applied here.
type VerificationConfig struct {
	CodeTTL time.Duration
}

func NewVerificationConfig() *VerificationConfig {
	return &VerificationConfig{
		CodeTTL: parseDurationOrDefault("VERIFICATION_CODE_TTL", defaultCodeTTL),
	}
}

type OAuthConfig struct {
	AuthorizeURL string
	ClientID     string
	RedirectURL  string
}

func NewOAuthConfig() *OAuthConfig {
	return &OAuthConfig{
		AuthorizeURL: os.Getenv("OAUTH_AUTHORIZE_URL"),
		ClientID:     os.Getenv("OAUTH_CLIENT_ID"),
		RedirectURL:  os.Getenv("OAUTH_REDIRECT_URL"),
	}
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// Bare integers are lifetimes in seconds, e.g. JWT_ACCESS_TOKEN_TTL=900.
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
		log.Printf("Invalid duration in %s: %s, using default %s", varName, v, def)
	}
	return def
}
