package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/estatecrm/backend/internal/application/crud"
	importapp "github.com/estatecrm/backend/internal/application/importing"
	"github.com/estatecrm/backend/internal/domain/importing"
	"github.com/estatecrm/backend/internal/domain/record"
	"github.com/estatecrm/backend/internal/domain/registry"
	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memRepo is an in-memory record store keyed by table name.
type memRepo struct {
	mu     sync.Mutex
	tables map[string]map[uuid.UUID]*record.Record
}

func newMemRepo() *memRepo {
	return &memRepo{tables: map[string]map[uuid.UUID]*record.Record{}}
}

func (m *memRepo) table(desc registry.Descriptor) map[uuid.UUID]*record.Record {
	t, ok := m.tables[desc.StorageName]
	if !ok {
		t = map[uuid.UUID]*record.Record{}
		m.tables[desc.StorageName] = t
	}
	return t
}

func (m *memRepo) Create(_ context.Context, desc registry.Descriptor, rec *record.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table(desc)[rec.ID] = rec
	return nil
}

func (m *memRepo) FindByID(_ context.Context, desc registry.Descriptor, id uuid.UUID) (*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.table(desc)[id]
	if !ok || rec.Removed {
		return nil, shared.ErrNotFound
	}
	return rec, nil
}

func (m *memRepo) Update(_ context.Context, desc registry.Descriptor, id uuid.UUID, attrs record.Attributes) (*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.table(desc)[id]
	if !ok || rec.Removed {
		return nil, shared.ErrNotFound
	}
	for k, v := range attrs {
		rec.Attributes[k] = v
	}
	return rec, nil
}

func (m *memRepo) SoftRemove(_ context.Context, desc registry.Descriptor, id uuid.UUID) (*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.table(desc)[id]
	if !ok || rec.Removed {
		return nil, shared.ErrNotFound
	}
	rec.Removed = true
	return rec, nil
}

func (m *memRepo) HardDelete(_ context.Context, desc registry.Descriptor, id uuid.UUID) (*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.table(desc)[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	delete(m.table(desc), id)
	return rec, nil
}

func (m *memRepo) List(_ context.Context, desc registry.Descriptor, q record.ListQuery) ([]record.Record, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []record.Record
	for _, rec := range m.table(desc) {
		if !rec.Removed {
			out = append(out, *rec)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memRepo) Count(_ context.Context, desc registry.Descriptor, filterField, filterValue string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, rec := range m.table(desc) {
		if rec.Removed {
			continue
		}
		if filterField != "" && rec.StringAttr(filterField) != filterValue {
			continue
		}
		count++
	}
	return count, nil
}

func (m *memRepo) InsertOne(ctx context.Context, desc registry.Descriptor, rec *record.Record) error {
	return m.Create(ctx, desc, rec)
}

type memHistoryRepo struct {
	mu      sync.Mutex
	entries []*importing.History
}

func (m *memHistoryRepo) Create(_ context.Context, h *importing.History) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, h)
	return nil
}

func (m *memHistoryRepo) List(_ context.Context, limit int) ([]importing.History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []importing.History
	for _, h := range m.entries {
		out = append(out, *h)
	}
	return out, nil
}

// newTestRouter wires the generic record routes and the command route with
// authentication disabled, which is the local development setup.
func newTestRouter(t *testing.T) (*gin.Engine, *memRepo) {
	t.Helper()

	reg := registry.New()
	repo := newMemRepo()
	base := NewBase(zap.NewNop(), true)

	crudHandler := NewCrudHandler(base, reg, crud.NewService(repo))
	commandHandler := NewCommandHandler(base, importapp.NewService(reg, repo, &memHistoryRepo{}))

	r := gin.New()
	api := r.Group("/api")
	api.POST("/command", commandHandler.Execute)
	entity := api.Group("/:entity")
	entity.GET("/list", crudHandler.List)
	entity.GET("/listAll", crudHandler.ListAll)
	entity.GET("/search", crudHandler.Search)
	entity.GET("/filter", crudHandler.Filter)
	entity.GET("/summary", crudHandler.Summary)
	entity.GET("/read/:id", crudHandler.Read)
	entity.POST("/create", crudHandler.Create)
	entity.PATCH("/update/:id", crudHandler.Update)
	entity.DELETE("/delete/:id", crudHandler.Delete)
	return r, repo
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestUnknownEntityIs404(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/bogus/list", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Controller not available for bogus", resp["message"])
}

func TestCreateReadUpdateDelete(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/lead/create", map[string]any{
		"name":    "Asha",
		"budget":  "900000",
		"removed": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, true, resp["success"])
	result := resp["result"].(map[string]any)
	assert.Equal(t, "Asha", result["name"])
	assert.Equal(t, false, result["removed"])
	id := result["_id"].(string)

	w = doJSON(r, http.MethodGet, "/api/lead/read/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPatch, "/api/lead/update/"+id, map[string]any{"budget": "950000"})
	require.Equal(t, http.StatusOK, w.Code)
	result = decode(t, w)["result"].(map[string]any)
	assert.Equal(t, "950000", result["budget"])
	assert.Equal(t, "Asha", result["name"])

	w = doJSON(r, http.MethodDelete, "/api/lead/delete/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/lead/read/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadInvalidIDIs400(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/lead/read/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEnvelopeHasPagination(t *testing.T) {
	r, _ := newTestRouter(t)

	for i := 0; i < 3; i++ {
		w := doJSON(r, http.MethodPost, "/api/task/create", map[string]any{"name": "t"})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(r, http.MethodGet, "/api/task/list?page=1&items=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	pagination := resp["pagination"].(map[string]any)
	assert.Equal(t, float64(1), pagination["page"])
	assert.Equal(t, float64(1), pagination["pages"])
	assert.Equal(t, float64(3), pagination["count"])

	w = doJSON(r, http.MethodGet, "/api/task/listAll", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode(t, w)
	assert.Nil(t, resp["pagination"])
	assert.Len(t, resp["result"], 3)
}

func TestSummaryCounts(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, status := range []string{"new", "new", "won"} {
		w := doJSON(r, http.MethodPost, "/api/client/create", map[string]any{"status": status})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(r, http.MethodGet, "/api/client/summary?filter=status&equal=new", nil)
	require.Equal(t, http.StatusOK, w.Code)
	result := decode(t, w)["result"].(map[string]any)
	assert.Equal(t, float64(2), result["countFilter"])
	assert.Equal(t, float64(3), result["countAllDocs"])
}

func TestCommandImportCSV(t *testing.T) {
	r, repo := newTestRouter(t)

	csv := "category,sub_category,name,budget\nApartment,sale,John,500000\n,,Jane,\n"
	w := doJSON(r, http.MethodPost, "/api/command", map[string]any{
		"command": "import csv",
		"csv":     csv,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode(t, w)["result"].(map[string]any)
	assert.Equal(t, float64(2), result["total"])
	assert.Equal(t, "500000", result["totalBudget"])

	assert.Len(t, repo.tables["apartment_buyers"], 1)
	assert.Len(t, repo.tables["client_universals"], 1)
}

func TestCommandNoDataRowsIs400(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/command", map[string]any{
		"command": "import csv",
		"csv":     "category,sub_category,name\n",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["message"], "No data rows found")
}

func TestCommandUnknownCommandIs400(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/command", map[string]any{"command": "export csv"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
