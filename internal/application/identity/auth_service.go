// Package identity implements authentication and session management on top
// of the domain identity model.
package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/estatecrm/backend/internal/domain/identity"
	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/estatecrm/backend/internal/infrastructure/auth"
	"github.com/estatecrm/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// errInvalidCredentials deliberately does not say whether the email or the
// password was wrong.
var errInvalidCredentials = shared.NewDomainError("UNAUTHORIZED", "Invalid email or password")

// LoginResult carries the authenticated user and the issued bearer token.
type LoginResult struct {
	User      *identity.User
	Token     string
	ExpiresAt time.Time
}

// AuthService handles login, logout, registration and request validation.
type AuthService struct {
	users       identity.UserRepository
	credentials identity.CredentialRepository
	jwt         *auth.JWTService
	metrics     *telemetry.AppMetrics
	logger      *zap.Logger
}

// AuthOption configures optional collaborators of the AuthService.
type AuthOption func(*AuthService)

// WithMetrics enables login metrics.
func WithMetrics(m *telemetry.AppMetrics) AuthOption {
	return func(s *AuthService) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) AuthOption {
	return func(s *AuthService) { s.logger = l }
}

// NewAuthService creates the authentication service.
func NewAuthService(users identity.UserRepository, credentials identity.CredentialRepository, jwt *auth.JWTService, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:       users,
		credentials: credentials,
		jwt:         jwt,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies the password and issues a bearer token, appending it to the
// user's session set. Sessions accumulate across devices; logging in never
// revokes an existing session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordLoginAttempt(ctx, false)
		return nil, errInvalidCredentials
	}
	if !user.CanLogin() {
		s.metrics.RecordLoginAttempt(ctx, false)
		return nil, errInvalidCredentials
	}

	cred, err := s.credentials.FindByUserID(ctx, user.ID)
	if err != nil {
		s.metrics.RecordLoginAttempt(ctx, false)
		return nil, errInvalidCredentials
	}
	if !cred.VerifyPassword(password) {
		s.metrics.RecordLoginAttempt(ctx, false)
		s.logger.Info("Failed login attempt", zap.String("email", user.Email))
		return nil, errInvalidCredentials
	}

	issued, err := s.jwt.Generate(user.ID)
	if err != nil {
		s.metrics.RecordLoginAttempt(ctx, false)
		return nil, err
	}

	cred.LoggedSessions.Add(issued.Token)
	if err := s.credentials.SaveSessions(ctx, cred); err != nil {
		s.metrics.RecordLoginAttempt(ctx, false)
		return nil, err
	}

	s.metrics.RecordLoginAttempt(ctx, true)
	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return &LoginResult{
		User:      user,
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

// Logout removes exactly the presented token from the session set. Other
// sessions of the same user stay valid.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return shared.ErrUnauthorized
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return shared.ErrUnauthorized
	}

	cred, err := s.credentials.FindByUserID(ctx, userID)
	if err != nil {
		return shared.ErrUnauthorized
	}

	cred.LoggedSessions.Remove(token)
	if err := s.credentials.SaveSessions(ctx, cred); err != nil {
		return err
	}

	s.logger.Info("User logged out", zap.String("user_id", userID.String()))
	return nil
}

// Register creates an enabled employee principal with its credential.
func (s *AuthService) Register(ctx context.Context, email, name, surname, password string) (*identity.User, error) {
	return s.register(ctx, email, name, surname, password, identity.RoleEmployee)
}

// CreateAdmin creates a privileged principal. It backs the bootstrap seed
// command; self-service registration always yields an employee.
func (s *AuthService) CreateAdmin(ctx context.Context, email, name, surname, password string, role identity.Role) (*identity.User, error) {
	if !role.CanDelete() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Role must be owner or admin")
	}
	return s.register(ctx, email, name, surname, password, role)
}

func (s *AuthService) register(ctx context.Context, email, name, surname, password string, role identity.Role) (*identity.User, error) {
	if len(password) < 8 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Password must be at least 8 characters")
	}

	if existing, err := s.users.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "An account with this email already exists")
	} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	user, err := identity.NewUser(email, name, surname, role)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	cred, err := identity.NewSessionCredential(user.ID, password)
	if err != nil {
		return nil, err
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Validate authenticates a bearer token: cryptographic verification, then
// concurrent principal and credential lookups, then membership of the exact
// token in the logged-session set. A valid signature alone is not enough;
// logout revokes by removing the token from the set.
func (s *AuthService) Validate(ctx context.Context, token string) (*identity.User, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.ErrUnauthorized
	}

	var (
		wg      sync.WaitGroup
		user    *identity.User
		userErr error
		cred    *identity.SessionCredential
		credErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		user, userErr = s.users.FindByID(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		cred, credErr = s.credentials.FindByUserID(ctx, userID)
	}()
	wg.Wait()

	if userErr != nil || user == nil || !user.CanLogin() {
		return nil, shared.ErrUnauthorized
	}
	if credErr != nil || cred == nil {
		return nil, shared.ErrUnauthorized
	}
	if !cred.LoggedSessions.Contains(token) {
		return nil, shared.ErrSessionRevoked
	}

	return user, nil
}
