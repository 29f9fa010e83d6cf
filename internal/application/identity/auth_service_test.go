package identity

import (
	"context"
	"testing"
	"time"

	"github.com/estatecrm/backend/internal/domain/identity"
	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/estatecrm/backend/internal/infrastructure/auth"
	"github.com/estatecrm/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserRepo struct {
	users map[uuid.UUID]*identity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[uuid.UUID]*identity.User{}}
}

func (m *memUserRepo) Create(_ context.Context, user *identity.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) Update(_ context.Context, user *identity.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	if u, ok := m.users[id]; ok && !u.Removed {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memUserRepo) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	for _, u := range m.users {
		if u.Email == email && !u.Removed {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

type memCredentialRepo struct {
	creds map[uuid.UUID]*identity.SessionCredential
}

func newMemCredentialRepo() *memCredentialRepo {
	return &memCredentialRepo{creds: map[uuid.UUID]*identity.SessionCredential{}}
}

func (m *memCredentialRepo) Create(_ context.Context, cred *identity.SessionCredential) error {
	m.creds[cred.UserID] = cred
	return nil
}

func (m *memCredentialRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*identity.SessionCredential, error) {
	if c, ok := m.creds[userID]; ok && !c.Removed {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memCredentialRepo) SaveSessions(_ context.Context, cred *identity.SessionCredential) error {
	m.creds[cred.UserID] = cred
	return nil
}

func (m *memCredentialRepo) Update(_ context.Context, cred *identity.SessionCredential) error {
	m.creds[cred.UserID] = cred
	return nil
}

func newTestAuthService() (*AuthService, *memUserRepo, *memCredentialRepo) {
	users := newMemUserRepo()
	creds := newMemCredentialRepo()
	jwt := auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-at-least-32-characters!!",
		Expiration: 72 * time.Hour,
		Issuer:     "estatecrm-backend-test",
	})
	return NewAuthService(users, creds, jwt), users, creds
}

func registerUser(t *testing.T, svc *AuthService) *identity.User {
	t.Helper()
	user, err := svc.Register(context.Background(), "asha@example.com", "Asha", "Rahman", "s3cret-password")
	require.NoError(t, err)
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, creds := newTestAuthService()
	user := registerUser(t, svc)
	assert.Equal(t, identity.RoleEmployee, user.Role)
	assert.True(t, user.Enabled)

	result, err := svc.Login(context.Background(), "asha@example.com", "s3cret-password")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, user.ID, result.User.ID)
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), result.ExpiresAt, time.Minute)

	cred := creds.creds[user.ID]
	assert.True(t, cred.LoggedSessions.Contains(result.Token))
}

func TestLoginRejections(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		svc, _, _ := newTestAuthService()
		registerUser(t, svc)

		_, err := svc.Login(context.Background(), "asha@example.com", "wrong")
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "UNAUTHORIZED", derr.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _, _ := newTestAuthService()
		_, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
		require.Error(t, err)
	})

	t.Run("disabled account", func(t *testing.T) {
		svc, users, _ := newTestAuthService()
		user := registerUser(t, svc)
		user.Enabled = false
		require.NoError(t, users.Update(context.Background(), user))

		_, err := svc.Login(context.Background(), "asha@example.com", "s3cret-password")
		require.Error(t, err)
	})
}

func TestCreateAdmin(t *testing.T) {
	svc, _, _ := newTestAuthService()

	user, err := svc.CreateAdmin(context.Background(), "boss@example.com", "Olive", "Owner", "s3cret-password", identity.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleOwner, user.Role)
	assert.True(t, user.Role.CanDelete())

	// The seeded account can log in like any other.
	result, err := svc.Login(context.Background(), "boss@example.com", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
}

func TestCreateAdminRejectsEmployeeRole(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, err := svc.CreateAdmin(context.Background(), "boss@example.com", "Olive", "Owner", "s3cret-password", identity.RoleEmployee)
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_INPUT", derr.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService()
	registerUser(t, svc)

	_, err := svc.Register(context.Background(), "asha@example.com", "Asha", "Again", "another-password")
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "ALREADY_EXISTS", derr.Code)
}

func TestValidateAndLogout(t *testing.T) {
	svc, _, _ := newTestAuthService()
	user := registerUser(t, svc)

	// Two concurrent devices accumulate two sessions.
	first, err := svc.Login(context.Background(), "asha@example.com", "s3cret-password")
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), "asha@example.com", "s3cret-password")
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	got, err := svc.Validate(context.Background(), first.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// Logout revokes exactly the presented token.
	require.NoError(t, svc.Logout(context.Background(), first.Token))

	_, err = svc.Validate(context.Background(), first.Token)
	assert.ErrorIs(t, err, shared.ErrSessionRevoked)

	_, err = svc.Validate(context.Background(), second.Token)
	assert.NoError(t, err, "other sessions survive a logout")
}

func TestValidateRejectsTokenOutsideSessionSet(t *testing.T) {
	svc, _, _ := newTestAuthService()
	user := registerUser(t, svc)

	// Cryptographically valid token that was never logged in.
	issued, err := svc.jwt.Generate(user.ID)
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), issued.Token)
	assert.ErrorIs(t, err, shared.ErrSessionRevoked)
}

func TestValidateRejectsGarbageToken(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, err := svc.Validate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}
