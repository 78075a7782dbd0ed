package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ndenisov/authd/internal/models"
	"github.com/ndenisov/authd/internal/util"
)

var (
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenInvalid         = errors.New("token invalid")
	ErrInvalidSigningMethod = errors.New("invalid signing method")
)

// TokenService signs and verifies access and refresh tokens. The two kinds
// use independent secrets and lifetimes; claims carry only the subject.
type TokenService struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
}

func NewTokenService(cfg *util.TokenConfig) *TokenService {
	return &TokenService{
		accessSecret:  cfg.AccessSecret,
		accessTTL:     cfg.AccessTTL,
		refreshSecret: cfg.RefreshSecret,
		refreshTTL:    cfg.RefreshTTL,
	}
}

func (ts *TokenService) IssueAccessToken(userID string, now time.Time) (models.Token, error) {
	return issue(userID, now, ts.accessTTL, ts.accessSecret)
}

func (ts *TokenService) IssueRefreshToken(userID string, now time.Time) (models.Token, error) {
	return issue(userID, now, ts.refreshTTL, ts.refreshSecret)
}

// VerifyAccessToken returns the subject userID of a valid access token.
func (ts *TokenService) VerifyAccessToken(token string) (string, error) {
	return verify(token, ts.accessSecret)
}

// VerifyRefreshToken returns the subject userID of a valid refresh token.
func (ts *TokenService) VerifyRefreshToken(token string) (string, error) {
	return verify(token, ts.refreshSecret)
}

func issue(subject string, now time.Time, ttl time.Duration, secret []byte) (models.Token, error) {
	claims := &jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signedToken, err := token.SignedString(secret)
	if err != nil {
		return models.Token{}, fmt.Errorf("signed string: %w", err)
	}

	return models.Token{
		Token:     signedToken,
		ExpiresIn: int64(ttl.Seconds()),
	}, nil
}

func verify(token string, secret []byte) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithLeeway(util.JWTLeeWay),
		jwt.WithExpirationRequired(),
	}

	parsedToken, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
				return nil, ErrInvalidSigningMethod
			}
			return secret, nil
		},
		opts...,
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if parsedToken == nil || !parsedToken.Valid {
		return "", ErrTokenInvalid
	}

	claims, ok := parsedToken.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	// Expiry is re-checked here even though the parser already enforced it;
	// an unexpired-looking token with a bad signature never reaches this
	// point, and a missing exp claim is rejected above.
	if claims.ExpiresAt == nil || time.Now().After(claims.ExpiresAt.Time.Add(util.JWTLeeWay)) {
		return "", ErrTokenExpired
	}

	return claims.Subject, nil
}
