package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserValidation(t *testing.T) {
	u, err := NewUser("Jane.Doe@Example.COM", "Jane", "Doe", RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", u.Email)
	assert.True(t, u.Enabled)
	assert.False(t, u.Removed)
	assert.True(t, u.CanLogin())
	assert.Equal(t, "Jane Doe", u.FullName())

	_, err = NewUser("not-an-email", "Jane", "", RoleEmployee)
	assert.Error(t, err)

	_, err = NewUser("jane@example.com", "", "", RoleEmployee)
	assert.Error(t, err)

	_, err = NewUser("jane@example.com", "Jane", "", Role("superuser"))
	assert.Error(t, err)
}

func TestRoleCanDelete(t *testing.T) {
	assert.True(t, RoleOwner.CanDelete())
	assert.True(t, RoleAdmin.CanDelete())
	assert.False(t, RoleEmployee.CanDelete())
}

func TestSessionCredentialPassword(t *testing.T) {
	cred, err := NewSessionCredential(uuid.New(), "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, cred.Salt)
	assert.NotEqual(t, "s3cret", cred.PasswordHash)

	assert.True(t, cred.VerifyPassword("s3cret"))
	assert.False(t, cred.VerifyPassword("wrong"))

	oldSalt := cred.Salt
	require.NoError(t, cred.ChangePassword("n3w-secret"))
	assert.NotEqual(t, oldSalt, cred.Salt)
	assert.True(t, cred.VerifyPassword("n3w-secret"))
	assert.False(t, cred.VerifyPassword("s3cret"))
}

func TestSessionSetSemantics(t *testing.T) {
	s := SessionSet{}

	s.Add("tok-a")
	s.Add("tok-b")
	s.Add("tok-a") // re-login from the same device is a no-op
	assert.Len(t, s, 2)
	assert.True(t, s.Contains("tok-a"))

	s.Remove("tok-a")
	assert.False(t, s.Contains("tok-a"))
	assert.True(t, s.Contains("tok-b"))

	// Idempotent removal.
	s.Remove("tok-a")
	assert.Len(t, s, 1)
}

func TestSessionSetScansColumnDefault(t *testing.T) {
	// Fresh credential rows carry the '{}'::jsonb column default; the set is
	// an object keyed by token, never an array.
	var s SessionSet
	require.NoError(t, s.Scan([]byte(`{}`)))
	assert.Empty(t, s)

	assert.Error(t, s.Scan([]byte(`[]`)))

	s = SessionSet{}
	s.Add("tok-a")
	v, err := s.Value()
	require.NoError(t, err)

	var roundTrip SessionSet
	require.NoError(t, roundTrip.Scan(v))
	assert.True(t, roundTrip.Contains("tok-a"))
}
