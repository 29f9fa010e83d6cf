package integration

import (
	"context"
	"testing"
	"time"

	identityapp "github.com/estatecrm/backend/internal/application/identity"
	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/estatecrm/backend/internal/infrastructure/auth"
	"github.com/estatecrm/backend/internal/infrastructure/config"
	"github.com/estatecrm/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T, tdb *TestDB) *identityapp.AuthService {
	t.Helper()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:     "integration-secret-at-least-32-chars!!",
		Expiration: 72 * time.Hour,
		Issuer:     "estatecrm-backend-test",
	})
	return identityapp.NewAuthService(
		persistence.NewGormUserRepository(tdb.DB),
		persistence.NewGormCredentialRepository(tdb.DB),
		jwtService,
	)
}

func TestAuthFlowAgainstDatabase(t *testing.T) {
	tdb := NewTestDB(t)
	svc := newAuthService(t, tdb)
	ctx := context.Background()

	user, err := svc.Register(ctx, "agent@estate.test", "Ravi", "Kumar", "sup3rsecret")
	require.NoError(t, err)
	assert.Equal(t, "agent@estate.test", user.Email)

	// Two logins from different devices accumulate sessions.
	first, err := svc.Login(ctx, "agent@estate.test", "sup3rsecret")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "agent@estate.test", "sup3rsecret")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	validated, err := svc.Validate(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, validated.ID)

	// Logging out the first session leaves the second valid.
	require.NoError(t, svc.Logout(ctx, first.Token))

	_, err = svc.Validate(ctx, first.Token)
	require.ErrorIs(t, err, shared.ErrSessionRevoked)

	_, err = svc.Validate(ctx, second.Token)
	require.NoError(t, err)
}

func TestLoginWrongPasswordAgainstDatabase(t *testing.T) {
	tdb := NewTestDB(t)
	svc := newAuthService(t, tdb)
	ctx := context.Background()

	_, err := svc.Register(ctx, "agent@estate.test", "Ravi", "Kumar", "sup3rsecret")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "agent@estate.test", "wrongpassword")
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
}
