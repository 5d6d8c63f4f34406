package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/authevent"
	"github.com/carlosapgomes/eda-triage/ent/authtoken"
	"github.com/carlosapgomes/eda-triage/ent/user"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers both unknown email and password mismatch —
// callers must not distinguish the two in responses or logs.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAccountNotActive is returned for a correct password on a blocked or
// removed account.
var ErrAccountNotActive = errors.New("account not active")

// ErrTokenInvalid covers unknown, expired, and revoked tokens.
var ErrTokenInvalid = errors.New("token invalid or expired")

// AuthService handles password login, token issuance/verification, and the
// auth_events audit trail.
type AuthService struct {
	client *ent.Client
	tokens *TokenService
}

// NewAuthService creates an AuthService.
func NewAuthService(client *ent.Client, tokens *TokenService) *AuthService {
	return &AuthService{client: client, tokens: tokens}
}

// Login verifies email/password, records an auth_events row regardless of
// outcome, and issues a token on success.
func (s *AuthService) Login(ctx context.Context, email, password, remoteAddr string) (IssuedToken, error) {
	u, err := s.client.User.Query().Where(user.Email(email)).Only(ctx)
	if err != nil {
		s.recordAuthEvent(ctx, nil, email, "login_failure", remoteAddr)
		if ent.IsNotFound(err) {
			return IssuedToken{}, ErrInvalidCredentials
		}
		return IssuedToken{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.recordAuthEvent(ctx, &u.ID, email, "login_failure", remoteAddr)
		return IssuedToken{}, ErrInvalidCredentials
	}

	if u.AccountStatus != user.AccountStatusActive {
		s.recordAuthEvent(ctx, &u.ID, email, "login_failure", remoteAddr)
		return IssuedToken{}, ErrAccountNotActive
	}

	issued, err := s.tokens.IssueToken()
	if err != nil {
		return IssuedToken{}, fmt.Errorf("failed to issue token: %w", err)
	}

	_, err = s.client.AuthToken.Create().
		SetID(uuid.New().String()).
		SetUserID(u.ID).
		SetTokenHash(issued.TokenHash).
		SetExpiresAt(issued.ExpiresAt).
		Save(ctx)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("failed to persist token: %w", err)
	}

	s.recordAuthEvent(ctx, &u.ID, email, "login_success", remoteAddr)
	return issued, nil
}

// VerifyToken resolves a bearer token to its owning user ID, rejecting
// expired or revoked tokens.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (string, error) {
	hash := HashToken(token)
	record, err := s.client.AuthToken.Query().Where(authtoken.TokenHash(hash)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return "", ErrTokenInvalid
		}
		return "", fmt.Errorf("failed to look up token: %w", err)
	}
	if record.RevokedAt != nil {
		return "", ErrTokenInvalid
	}
	if time.Now().After(record.ExpiresAt) {
		return "", ErrTokenInvalid
	}
	return record.UserID, nil
}

// RevokeToken marks a token revoked (logout).
func (s *AuthService) RevokeToken(ctx context.Context, token string) error {
	hash := HashToken(token)
	record, err := s.client.AuthToken.Query().Where(authtoken.TokenHash(hash)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to look up token: %w", err)
	}
	return s.client.AuthToken.UpdateOne(record).SetRevokedAt(time.Now()).Exec(ctx)
}

func (s *AuthService) recordAuthEvent(ctx context.Context, userID *string, email, outcome, remoteAddr string) {
	create := s.client.AuthEvent.Create().
		SetID(uuid.New().String()).
		SetEmail(email).
		SetOutcome(authevent.Outcome(outcome))
	if userID != nil {
		create = create.SetUserID(*userID)
	}
	if remoteAddr != "" {
		create = create.SetRemoteAddr(remoteAddr)
	}
	// Fail-open: an audit-write failure must not block the login response.
	_, _ = create.Save(ctx)
}
