package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/estatecrm/backend/internal/domain/identity"
	"github.com/estatecrm/backend/internal/domain/notification"
	"github.com/estatecrm/backend/internal/domain/record"
	"github.com/estatecrm/backend/internal/domain/registry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memNotificationRepo struct {
	created []*notification.Notification
	failing bool
}

func (m *memNotificationRepo) Create(_ context.Context, n *notification.Notification) error {
	if m.failing {
		return errors.New("store unavailable")
	}
	m.created = append(m.created, n)
	return nil
}

func (m *memNotificationRepo) ListByUser(_ context.Context, userID uuid.UUID, _ int) ([]notification.Notification, error) {
	var out []notification.Notification
	for _, n := range m.created {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *memNotificationRepo) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	for _, n := range m.created {
		if n.UserID == userID && n.ID == id {
			n.Read = true
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memNotificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	for _, n := range m.created {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (m *memNotificationRepo) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, c := range m.created {
		if c.UserID == userID && !c.Read {
			n++
		}
	}
	return n, nil
}

func testActor(t *testing.T) *identity.User {
	t.Helper()
	u, err := identity.NewUser("asha@example.com", "Asha", "Rahman", identity.RoleAdmin)
	require.NoError(t, err)
	return u
}

var clientDesc = registry.Descriptor{
	Key:         "client",
	StorageName: "clients",
	DisplayName: "Client",
	SoftDelete:  true,
}

func TestRecordCreatedUsesEntityTemplate(t *testing.T) {
	repo := &memNotificationRepo{}
	svc := NewService(repo, nil)
	actor := testActor(t)
	rec := record.New(map[string]any{"name": "Omar"}, nil)

	svc.RecordCreated(context.Background(), clientDesc, rec, actor)

	require.Len(t, repo.created, 1)
	n := repo.created[0]
	assert.Equal(t, notification.TypeClient, n.Type)
	assert.Equal(t, "New client added", n.Title)
	assert.Contains(t, n.Message, "Omar")
	assert.Contains(t, n.Message, "Asha Rahman")
	assert.Equal(t, actor.ID, n.UserID)
	assert.Equal(t, "client", n.Metadata["entity"])
	assert.False(t, n.Read)
}

func TestRecordMutationFallsBackToDefaultTemplate(t *testing.T) {
	repo := &memNotificationRepo{}
	svc := NewService(repo, nil)
	desc := registry.Descriptor{Key: "landvisit", StorageName: "land_visits", DisplayName: "LandVisit"}
	rec := record.New(map[string]any{"name": "Plot 7"}, nil)

	svc.RecordUpdated(context.Background(), desc, rec, testActor(t))

	require.Len(t, repo.created, 1)
	assert.Equal(t, notification.TypeInfo, repo.created[0].Type)
	assert.Equal(t, "LandVisit record updated", repo.created[0].Title)
}

func TestEntityTemplatesMatchRegistry(t *testing.T) {
	reg := registry.New()
	for key := range entityTemplates {
		assert.True(t, reg.Has(key), "template key %q has no registered entity", key)
	}
}

func TestMutationWithoutActorIsSkipped(t *testing.T) {
	repo := &memNotificationRepo{}
	svc := NewService(repo, nil)

	svc.RecordDeleted(context.Background(), clientDesc, record.New(nil, nil), nil)
	assert.Empty(t, repo.created)
}

func TestEmitFailureIsAbsorbed(t *testing.T) {
	repo := &memNotificationRepo{failing: true}
	svc := NewService(repo, nil)

	// Must not panic or surface the error.
	svc.RecordCreated(context.Background(), clientDesc, record.New(nil, nil), testActor(t))
	assert.Empty(t, repo.created)
}

func TestReadAndMarkOperations(t *testing.T) {
	repo := &memNotificationRepo{}
	svc := NewService(repo, nil)
	actor := testActor(t)

	svc.RecordCreated(context.Background(), clientDesc, record.New(map[string]any{"name": "A"}, nil), actor)
	svc.RecordCreated(context.Background(), clientDesc, record.New(map[string]any{"name": "B"}, nil), actor)

	unread, err := svc.CountUnread(context.Background(), actor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	list, err := svc.ListForUser(context.Background(), actor.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, svc.MarkRead(context.Background(), actor.ID, list[0].ID))
	unread, err = svc.CountUnread(context.Background(), actor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	require.NoError(t, svc.MarkAllRead(context.Background(), actor.ID))
	unread, err = svc.CountUnread(context.Background(), actor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}
