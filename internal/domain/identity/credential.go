package identity

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SessionCredential holds one user's password material and the set of
// currently valid bearer tokens. Token membership here is the sole
// revocation mechanism: logout removes the presented token, and a
// cryptographically valid token that is absent from the set no longer
// authenticates.
type SessionCredential struct {
	shared.BaseEntity
	UserID         uuid.UUID
	PasswordHash   string
	Salt           string
	LoggedSessions SessionSet
	Removed        bool
}

// SessionSet is the set of live tokens, persisted as a jsonb object keyed
// by token. Set semantics make revocation idempotent and membership O(1).
type SessionSet map[string]struct{}

// Add inserts a token. Sessions accumulate: each login from another device
// adds a member without disturbing existing ones.
func (s SessionSet) Add(token string) {
	s[token] = struct{}{}
}

// Remove drops exactly one token; removing an absent token is a no-op.
func (s SessionSet) Remove(token string) {
	delete(s, token)
}

// Contains reports token membership.
func (s SessionSet) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

// Value implements driver.Valuer for jsonb persistence.
func (s SessionSet) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *SessionSet) Scan(value any) error {
	if value == nil {
		*s = SessionSet{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported session set type %T", value)
	}
	if len(data) == 0 {
		*s = SessionSet{}
		return nil
	}
	return json.Unmarshal(data, s)
}

// NewSessionCredential hashes the password and returns a credential with an
// empty session set.
func NewSessionCredential(userID uuid.UUID, password string) (*SessionCredential, error) {
	salt, err := generateSalt()
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(salt, password)
	if err != nil {
		return nil, err
	}
	return &SessionCredential{
		BaseEntity:     shared.NewBaseEntity(),
		UserID:         userID,
		PasswordHash:   hash,
		Salt:           salt,
		LoggedSessions: SessionSet{},
		Removed:        false,
	}, nil
}

// VerifyPassword checks the salted password against the stored hash.
func (c *SessionCredential) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(c.Salt+password)) == nil
}

// ChangePassword re-salts and re-hashes; existing sessions stay valid.
func (c *SessionCredential) ChangePassword(password string) error {
	salt, err := generateSalt()
	if err != nil {
		return err
	}
	hash, err := hashPassword(salt, password)
	if err != nil {
		return err
	}
	c.Salt = salt
	c.PasswordHash = hash
	return nil
}

// The stored hash covers salt+password, matching the credential format this
// system inherited; bcrypt's own salt is layered on top.
func hashPassword(salt, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(salt+password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func generateSalt() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
