package auth

import (
	"testing"
	"time"

	"github.com/estatecrm/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(expiration time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     "test-secret-test-secret-test-secret",
		Expiration: expiration,
		Issuer:     "estatecrm-test",
	})
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestService(72 * time.Hour)
	userID := uuid.New()

	issued, err := svc.Generate(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), issued.ExpiresAt, time.Minute)

	claims, err := svc.Validate(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)

	got, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestService(-time.Minute)

	issued, err := svc.Generate(uuid.New())
	require.NoError(t, err)

	_, err = svc.Validate(issued.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateWrongSecret(t *testing.T) {
	svc := newTestService(time.Hour)
	issued, err := svc.Generate(uuid.New())
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:     "a-completely-different-secret-value",
		Expiration: time.Hour,
		Issuer:     "estatecrm-test",
	})
	_, err = other.Validate(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateGarbage(t *testing.T) {
	svc := newTestService(time.Hour)
	_, err := svc.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
