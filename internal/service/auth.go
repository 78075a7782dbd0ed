package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ndenisov/authd/internal/models"
	"github.com/ndenisov/authd/internal/storage"
	"github.com/ndenisov/authd/internal/util"
)

var (
	ErrInvalidCredentials      = errors.New("invalid password")
	ErrAlreadyAuthenticated    = errors.New("you are authorized")
	ErrInvalidRefreshToken     = errors.New("refresh token is not valid")
	ErrInvalidVerificationCode = errors.New("not valid code")
	ErrUnauthorized            = errors.New("unauthorized")
)

// AuthService ties credentials, refresh sessions, tokens and verification
// codes together. It owns every RefreshSession mutation.
type AuthService struct {
	storage      storage.Storage
	tokens       *TokenService
	verification *VerificationService
	mailer       Mailer
	log          *zap.SugaredLogger
	opTimeout    time.Duration
	loginLocks   keyedMutex
}

func NewAuthService(
	st storage.Storage,
	tokens *TokenService,
	verification *VerificationService,
	mailer Mailer,
	cfg *util.ServerConfig,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		storage:      st,
		tokens:       tokens,
		verification: verification,
		mailer:       mailer,
		log:          log,
		opTimeout:    cfg.OpTimeout,
	}
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), util.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.storage.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Login:        req.Login,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login validates credentials and issues a token pair bound to the device.
// A device holding a still-valid refresh session cannot log in again; a
// device whose session token expired gets its session rotated in place.
func (s *AuthService) Login(ctx context.Context, login, password string, fp models.Fingerprint) (*models.TokenPair, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	user, err := s.verifyCredentials(ctx, login, password)
	if err != nil {
		return nil, err
	}

	// Serializes the check-then-act below so two concurrent logins from the
	// same device cannot both take the "no session" branch.
	unlock := s.loginLocks.lock(lockKey(user.ID, fp))
	defer unlock()

	sessions, err := s.storage.FindSessions(ctx, storage.SessionFilter{
		UserID:    &user.ID,
		UserAgent: &fp.UserAgent,
		IPAddress: &fp.IPAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("find sessions: %w", err)
	}

	if len(sessions) == 0 {
		pair, err := s.issuePair(user.ID)
		if err != nil {
			return nil, err
		}
		if _, err := s.storage.CreateSession(ctx, models.RefreshSession{
			UserID:       user.ID,
			UserAgent:    fp.UserAgent,
			IPAddress:    fp.IPAddress,
			RefreshToken: pair.RefreshToken.Token,
		}); err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		return pair, nil
	}

	if _, err := s.tokens.VerifyRefreshToken(sessions[0].RefreshToken); err == nil {
		return nil, ErrAlreadyAuthenticated
	}

	// Stored token expired or invalid: rotate it rather than stacking a
	// second session for the device.
	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.storage.UpdateSessionByUser(ctx, user.ID, pair.RefreshToken.Token); err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}
	return pair, nil
}

// RefreshToken exchanges a refresh token for a new access token. The stored
// refresh token is not rotated here.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string, fp models.Fingerprint) (*models.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	sessions, err := s.storage.FindSessions(ctx, storage.SessionFilter{
		UserAgent:    &fp.UserAgent,
		IPAddress:    &fp.IPAddress,
		RefreshToken: &refreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("find sessions: %w", err)
	}
	if len(sessions) == 0 {
		return nil, storage.ErrSessionNotFound
	}

	// Expired and tampered tokens fail alike; the caller learns nothing
	// about which case occurred.
	if _, err := s.tokens.VerifyRefreshToken(refreshToken); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
	}

	accessToken, err := s.tokens.IssueAccessToken(sessions[0].UserID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &accessToken, nil
}

// Logout removes the device's session. Deleting a session that does not
// exist is not an error.
func (s *AuthService) Logout(ctx context.Context, userID string, fp models.Fingerprint) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.storage.DeleteSessions(ctx, userID, &fp); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// LogoutAll removes every session of the user across all devices.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.storage.DeleteSessions(ctx, userID, nil); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}

// SendVerificationCode issues a reset code and mails it. Mail delivery is
// best-effort and never fails the call.
func (s *AuthService) SendVerificationCode(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	code, err := s.verification.Issue(ctx, email)
	if err != nil {
		return fmt.Errorf("issue verification code: %w", err)
	}

	s.mailer.Send(email, "Verification Code", fmt.Sprintf("<b>Verification code: %s</b>", code))
	return nil
}

// ResetPassword replaces the user's password after checking the supplied
// code against the stored one. The code is deleted only after a successful
// update, which is what makes it single-use.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	stored, err := s.verification.Code(ctx, email)
	if err != nil {
		return err
	}
	if stored == "" || len(stored) != len(code) ||
		subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return ErrInvalidVerificationCode
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), util.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.storage.UpdateUserPasswordByEmail(ctx, email, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.verification.Delete(ctx, email); err != nil {
		s.log.Errorw("failed to delete consumed verification code", "email", email, "error", err)
	}
	return nil
}

// Authenticate proves a bearer access token belongs to a live device
// session. A valid signature alone is not enough: the device must still
// hold a session record.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string, fp models.Fingerprint) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	userID, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	sessions, err := s.storage.FindSessions(ctx, storage.SessionFilter{
		UserID:    &userID,
		UserAgent: &fp.UserAgent,
		IPAddress: &fp.IPAddress,
	})
	if err != nil {
		return "", fmt.Errorf("find sessions: %w", err)
	}
	if len(sessions) == 0 {
		return "", ErrUnauthorized
	}
	return userID, nil
}

func (s *AuthService) WhoAmI(ctx context.Context, userID string) (*models.WhoAmIResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &models.WhoAmIResponse{
		UserID:    user.ID,
		Login:     user.Login,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

func (s *AuthService) verifyCredentials(ctx context.Context, login, password string) (*models.User, error) {
	user, err := s.storage.GetUserByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("get user by login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) issuePair(userID string) (*models.TokenPair, error) {
	now := time.Now()

	accessToken, err := s.tokens.IssueAccessToken(userID, now)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(userID, now)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func lockKey(userID string, fp models.Fingerprint) string {
	return userID + "\x00" + fp.UserAgent + "\x00" + fp.IPAddress
}

// keyedMutex serializes callers per key. Entries are refcounted and removed
// once the last holder unlocks, so the map does not grow with key churn.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockEntry)
	}
	e := k.locks[key]
	if e == nil {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
