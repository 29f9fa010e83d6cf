package crud

import (
	"context"
	"strings"
	"testing"

	"github.com/estatecrm/backend/internal/domain/identity"
	"github.com/estatecrm/backend/internal/domain/record"
	"github.com/estatecrm/backend/internal/domain/registry"
	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory record.Repository with the same visibility rules
// as the real one: removed records are invisible to every read path.
type memRepo struct {
	store map[string][]*record.Record
}

func newMemRepo() *memRepo {
	return &memRepo{store: map[string][]*record.Record{}}
}

func (m *memRepo) Create(_ context.Context, desc registry.Descriptor, rec *record.Record) error {
	m.store[desc.StorageName] = append(m.store[desc.StorageName], rec)
	return nil
}

func (m *memRepo) InsertOne(ctx context.Context, desc registry.Descriptor, rec *record.Record) error {
	return m.Create(ctx, desc, rec)
}

func (m *memRepo) find(desc registry.Descriptor, id uuid.UUID) *record.Record {
	for _, rec := range m.store[desc.StorageName] {
		if rec.ID == id && !rec.Removed {
			return rec
		}
	}
	return nil
}

func (m *memRepo) FindByID(_ context.Context, desc registry.Descriptor, id uuid.UUID) (*record.Record, error) {
	if rec := m.find(desc, id); rec != nil {
		return rec, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) Update(_ context.Context, desc registry.Descriptor, id uuid.UUID, attrs record.Attributes) (*record.Record, error) {
	rec := m.find(desc, id)
	if rec == nil {
		return nil, shared.ErrNotFound
	}
	for k, v := range attrs {
		rec.Attributes[k] = v
	}
	return rec, nil
}

func (m *memRepo) SoftRemove(_ context.Context, desc registry.Descriptor, id uuid.UUID) (*record.Record, error) {
	rec := m.find(desc, id)
	if rec == nil {
		return nil, shared.ErrNotFound
	}
	rec.Removed = true
	return rec, nil
}

func (m *memRepo) HardDelete(_ context.Context, desc registry.Descriptor, id uuid.UUID) (*record.Record, error) {
	recs := m.store[desc.StorageName]
	for i, rec := range recs {
		if rec.ID == id && !rec.Removed {
			m.store[desc.StorageName] = append(recs[:i], recs[i+1:]...)
			return rec, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) matches(rec *record.Record, q record.ListQuery) bool {
	if rec.Removed {
		return false
	}
	if q.FilterField != "" && rec.StringAttr(q.FilterField) != q.FilterValue {
		return false
	}
	if q.Q != "" {
		hit := false
		for _, f := range q.Fields {
			if strings.Contains(strings.ToLower(rec.StringAttr(f)), strings.ToLower(q.Q)) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func (m *memRepo) List(_ context.Context, desc registry.Descriptor, q record.ListQuery) ([]record.Record, int64, error) {
	q = q.Normalize()
	var all []record.Record
	for _, rec := range m.store[desc.StorageName] {
		if m.matches(rec, q) {
			all = append(all, *rec)
		}
	}
	total := int64(len(all))
	start := q.Offset()
	if start > len(all) {
		return nil, total, nil
	}
	end := start + q.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m *memRepo) Count(_ context.Context, desc registry.Descriptor, filterField, filterValue string) (int64, error) {
	q := record.ListQuery{FilterField: filterField, FilterValue: filterValue}
	var n int64
	for _, rec := range m.store[desc.StorageName] {
		if m.matches(rec, q) {
			n++
		}
	}
	return n, nil
}

type fakeNotifier struct {
	created, updated, deleted int
}

func (f *fakeNotifier) RecordCreated(context.Context, registry.Descriptor, *record.Record, *identity.User) {
	f.created++
}

func (f *fakeNotifier) RecordUpdated(context.Context, registry.Descriptor, *record.Record, *identity.User) {
	f.updated++
}

func (f *fakeNotifier) RecordDeleted(context.Context, registry.Descriptor, *record.Record, *identity.User) {
	f.deleted++
}

var leadDesc = registry.Descriptor{
	Key:         "lead",
	StorageName: "leads",
	DisplayName: "Lead",
	SoftDelete:  true,
}

func adminUser(t *testing.T) *identity.User {
	t.Helper()
	u, err := identity.NewUser("admin@example.com", "Ada", "Admin", identity.RoleAdmin)
	require.NoError(t, err)
	return u
}

func employeeUser(t *testing.T) *identity.User {
	t.Helper()
	u, err := identity.NewUser("emp@example.com", "Eli", "Employee", identity.RoleEmployee)
	require.NoError(t, err)
	return u
}

func TestCreate(t *testing.T) {
	repo := newMemRepo()
	notifier := &fakeNotifier{}
	svc := NewService(repo, WithNotifier(notifier))
	actor := adminUser(t)

	rec, err := svc.Create(context.Background(), leadDesc, map[string]any{
		"name":    "Asha",
		"removed": true,
		"_id":     "forged",
	}, actor)
	require.NoError(t, err)

	assert.False(t, rec.Removed, "create must force removed=false")
	assert.True(t, rec.Enabled)
	assert.Equal(t, "Asha", rec.StringAttr("name"))
	assert.NotContains(t, rec.Attributes, "_id")
	require.NotNil(t, rec.CreatedBy)
	assert.Equal(t, actor.ID, *rec.CreatedBy)
	assert.Equal(t, 1, notifier.created)
}

func TestReadAndUpdate(t *testing.T) {
	repo := newMemRepo()
	notifier := &fakeNotifier{}
	svc := NewService(repo, WithNotifier(notifier))

	rec, err := svc.Create(context.Background(), leadDesc, map[string]any{"name": "Asha", "status": "new"}, nil)
	require.NoError(t, err)

	got, err := svc.Read(context.Background(), leadDesc, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	updated, err := svc.Update(context.Background(), leadDesc, rec.ID, map[string]any{"status": "contacted", "removed": true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "contacted", updated.StringAttr("status"))
	assert.Equal(t, "Asha", updated.StringAttr("name"), "update merges, never replaces")
	assert.False(t, updated.Removed)
	assert.Equal(t, 1, notifier.updated)

	_, err = svc.Update(context.Background(), leadDesc, uuid.New(), map[string]any{"status": "x"}, nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDelete(t *testing.T) {
	t.Run("employee is forbidden", func(t *testing.T) {
		repo := newMemRepo()
		svc := NewService(repo)
		rec, err := svc.Create(context.Background(), leadDesc, map[string]any{"name": "Asha"}, nil)
		require.NoError(t, err)

		_, err = svc.Delete(context.Background(), leadDesc, rec.ID, employeeUser(t))
		assert.ErrorIs(t, err, shared.ErrForbidden)

		got, err := svc.Read(context.Background(), leadDesc, rec.ID)
		require.NoError(t, err)
		assert.False(t, got.Removed)
	})

	t.Run("soft delete hides the record", func(t *testing.T) {
		repo := newMemRepo()
		notifier := &fakeNotifier{}
		svc := NewService(repo, WithNotifier(notifier))
		rec, err := svc.Create(context.Background(), leadDesc, map[string]any{"name": "Asha"}, nil)
		require.NoError(t, err)

		deleted, err := svc.Delete(context.Background(), leadDesc, rec.ID, adminUser(t))
		require.NoError(t, err)
		assert.True(t, deleted.Removed)
		assert.Equal(t, 1, notifier.deleted)

		_, err = svc.Read(context.Background(), leadDesc, rec.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		// Second delete sees no non-removed record.
		_, err = svc.Delete(context.Background(), leadDesc, rec.ID, adminUser(t))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("hard delete when soft delete is disabled", func(t *testing.T) {
		hardDesc := leadDesc
		hardDesc.SoftDelete = false

		repo := newMemRepo()
		svc := NewService(repo)
		rec, err := svc.Create(context.Background(), hardDesc, map[string]any{"name": "Asha"}, nil)
		require.NoError(t, err)

		_, err = svc.Delete(context.Background(), hardDesc, rec.ID, adminUser(t))
		require.NoError(t, err)
		assert.Empty(t, repo.store[hardDesc.StorageName])
	})
}

func TestListPagination(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	for i := 0; i < 5; i++ {
		_, err := svc.Create(context.Background(), leadDesc, map[string]any{"name": "Lead"}, nil)
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), leadDesc, record.ListQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Result, 2)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, 3, page.Pagination.Pages)
	assert.Equal(t, int64(5), page.Pagination.Count)

	last, err := svc.List(context.Background(), leadDesc, record.ListQuery{Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, last.Result, 1)

	empty, err := svc.List(context.Background(), leadDesc, record.ListQuery{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, empty.Result, "an empty page is a result, not an error")
	assert.Equal(t, int64(5), empty.Pagination.Count)
}

func TestSearchAndFilter(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), leadDesc, map[string]any{"name": "Asha Rahman", "status": "new"}, nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), leadDesc, map[string]any{"name": "Omar Karim", "status": "won"}, nil)
	require.NoError(t, err)

	found, err := svc.Search(context.Background(), leadDesc, record.ListQuery{
		Q:      "asha",
		Fields: []string{"name"},
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Asha Rahman", found[0].StringAttr("name"))

	filtered, err := svc.Filter(context.Background(), leadDesc, record.ListQuery{
		FilterField: "status",
		FilterValue: "won",
	})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Omar Karim", filtered[0].StringAttr("name"))
}

func TestGetSummary(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	for _, status := range []string{"new", "new", "won"} {
		_, err := svc.Create(context.Background(), leadDesc, map[string]any{"status": status}, nil)
		require.NoError(t, err)
	}

	summary, err := svc.GetSummary(context.Background(), leadDesc, "status", "new")
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.CountFilter)
	assert.Equal(t, int64(3), summary.CountAllDocs)

	unfiltered, err := svc.GetSummary(context.Background(), leadDesc, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), unfiltered.CountFilter)
	assert.Equal(t, int64(3), unfiltered.CountAllDocs)
}
