package importapp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/estatecrm/backend/internal/domain/importing"
	"github.com/estatecrm/backend/internal/domain/record"
	"github.com/estatecrm/backend/internal/domain/registry"
	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecordRepo struct {
	inserted map[string][]*record.Record
	failFor  map[string]bool
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{
		inserted: map[string][]*record.Record{},
		failFor:  map[string]bool{},
	}
}

func (f *fakeRecordRepo) InsertOne(_ context.Context, desc registry.Descriptor, rec *record.Record) error {
	if f.failFor[desc.Key] {
		return errors.New("insert failed")
	}
	f.inserted[desc.StorageName] = append(f.inserted[desc.StorageName], rec)
	return nil
}

func (f *fakeRecordRepo) Create(ctx context.Context, desc registry.Descriptor, rec *record.Record) error {
	return f.InsertOne(ctx, desc, rec)
}

func (f *fakeRecordRepo) FindByID(context.Context, registry.Descriptor, uuid.UUID) (*record.Record, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeRecordRepo) Update(context.Context, registry.Descriptor, uuid.UUID, record.Attributes) (*record.Record, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeRecordRepo) SoftRemove(context.Context, registry.Descriptor, uuid.UUID) (*record.Record, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeRecordRepo) HardDelete(context.Context, registry.Descriptor, uuid.UUID) (*record.Record, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeRecordRepo) List(context.Context, registry.Descriptor, record.ListQuery) ([]record.Record, int64, error) {
	return nil, 0, nil
}

func (f *fakeRecordRepo) Count(context.Context, registry.Descriptor, string, string) (int64, error) {
	return 0, nil
}

type fakeHistoryRepo struct {
	created []*importing.History
}

func (f *fakeHistoryRepo) Create(_ context.Context, h *importing.History) error {
	f.created = append(f.created, h)
	return nil
}

func (f *fakeHistoryRepo) List(context.Context, int) ([]importing.History, error) {
	return f.listCopy(), nil
}

func (f *fakeHistoryRepo) listCopy() []importing.History {
	out := make([]importing.History, len(f.created))
	for i := range f.created {
		out[i] = *f.created[i]
	}
	return out
}

type fakeIdempotencyStore struct {
	seen map[string]bool
}

func (f *fakeIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	return f.seen[key], nil
}

func (f *fakeIdempotencyStore) Close() error { return nil }

type fakeSheetFetcher struct {
	payload []byte
	err     error
}

func (f *fakeSheetFetcher) Fetch(context.Context, string) ([]byte, error) {
	return f.payload, f.err
}

func TestExecuteCSVBatch(t *testing.T) {
	repo := newFakeRecordRepo()
	history := &fakeHistoryRepo{}
	svc := NewService(registry.New(), repo, history)

	csv := "category,sub_category,name,budget\n" +
		"Apartment,sale,John,500000\n" +
		",,Jane,\n"

	result, err := svc.Execute(context.Background(), Request{
		Command: CommandImportCSV,
		CSV:     csv,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Summary["ApartmentBuyer"])
	assert.Equal(t, 1, result.Summary["ClientUniversal"])
	assert.Equal(t, 1, result.Breakdown["Apartment-sale"])
	assert.Equal(t, 1, result.Breakdown["Client-Universal"])
	assert.NotEmpty(t, result.Note)
	assert.Equal(t, "500000", result.TotalBudget)

	buyers := repo.inserted["apartment_buyers"]
	require.Len(t, buyers, 1)
	assert.Equal(t, "John", buyers[0].StringAttr("name"))
	assert.Equal(t, "500000", buyers[0].StringAttr("budget"))
	assert.False(t, buyers[0].Removed)

	universal := repo.inserted["client_universals"]
	require.Len(t, universal, 1)
	assert.Equal(t, "Jane", universal[0].StringAttr("name"))
	assert.Equal(t, "-", universal[0].StringAttr("budget"))
	assert.Equal(t, "ClientUniversal", universal[0].StringAttr("category"))
	assert.Equal(t, "ClientAll", universal[0].StringAttr("subCategory"))

	require.Len(t, history.created, 1)
	assert.Equal(t, importing.SourceCSV, history.created[0].Source)
	assert.Equal(t, 2, history.created[0].RowCount)
	assert.Equal(t, 2, history.created[0].Inserted)
}

func TestExecuteKeepsUnmappedColumns(t *testing.T) {
	repo := newFakeRecordRepo()
	svc := NewService(registry.New(), repo, nil)

	csv := "category,sub_category,name,favorite_color\n" +
		"Apartment,owner,Mina,teal\n"

	result, err := svc.Execute(context.Background(), Request{Command: CommandImportCSV, CSV: csv})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)

	recs := repo.inserted["apartments"]
	require.Len(t, recs, 1)
	custom, ok := recs[0].Attributes["customFields"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "teal", custom["favorite_color"])
	assert.Equal(t, "Mina", custom["name"])
}

func TestExecuteUnknownCommand(t *testing.T) {
	svc := NewService(registry.New(), newFakeRecordRepo(), nil)

	_, err := svc.Execute(context.Background(), Request{Command: "import pdf"})
	require.Error(t, err)

	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_INPUT", derr.Code)
}

func TestExecuteNoDataRows(t *testing.T) {
	svc := NewService(registry.New(), newFakeRecordRepo(), nil)

	_, err := svc.Execute(context.Background(), Request{
		Command: CommandImportCSV,
		CSV:     "category,sub_category,name\n",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data rows found")
}

func TestExecuteTargetWithoutCollection(t *testing.T) {
	repo := newFakeRecordRepo()
	svc := NewService(registry.New(), repo, nil)

	// Shop+sale classifies to ShopBuyer, which has no backing collection.
	csv := "category,sub_category,name\n" +
		"Shop,sale,Omar\n"

	result, err := svc.Execute(context.Background(), Request{Command: CommandImportCSV, CSV: csv})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, result.Summary["ShopBuyer"])
	// The row was still classified, so it keeps its breakdown label.
	assert.Equal(t, 1, result.Breakdown["Shop-sale"])
	assert.Empty(t, repo.inserted)
}

func TestExecuteRowFailureIsAbsorbed(t *testing.T) {
	repo := newFakeRecordRepo()
	repo.failFor["apartmentbuyer"] = true
	svc := NewService(registry.New(), repo, nil)

	csv := "category,sub_category,name\n" +
		"Apartment,sale,John\n" +
		"Land,sale,Jane\n"

	result, err := svc.Execute(context.Background(), Request{Command: CommandImportCSV, CSV: csv})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 0, result.Summary["ApartmentBuyer"])
	assert.Equal(t, 1, result.Summary["LandBuyer"])
	assert.Equal(t, 1, result.Breakdown["Apartment-sale"])
	assert.Equal(t, 1, result.Breakdown["Land-sale"])
}

func TestExecuteIdempotencyKey(t *testing.T) {
	repo := newFakeRecordRepo()
	store := &fakeIdempotencyStore{}
	svc := NewService(registry.New(), repo, nil,
		WithIdempotencyStore(store, time.Hour))

	req := Request{
		Command:        CommandImportCSV,
		CSV:            "category,sub_category,name\nApartment,sale,John\n",
		IdempotencyKey: "batch-1",
	}

	_, err := svc.Execute(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), req)
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "ALREADY_EXISTS", derr.Code)
}

func TestExecuteSheetCommand(t *testing.T) {
	repo := newFakeRecordRepo()
	fetcher := &fakeSheetFetcher{
		payload: []byte("category,sub_category,name\nInvestor,all,Priya\n"),
	}
	svc := NewService(registry.New(), repo, nil, WithSheetFetcher(fetcher))

	result, err := svc.Execute(context.Background(), Request{
		Command: CommandImportSheet,
		SheetID: "sheet-123",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary["Investor"])
	require.Len(t, repo.inserted["investors"], 1)
	assert.Equal(t, "Priya", repo.inserted["investors"][0].StringAttr("name"))
}

func TestExecuteSheetFetchFailure(t *testing.T) {
	svc := NewService(registry.New(), newFakeRecordRepo(), nil,
		WithSheetFetcher(&fakeSheetFetcher{err: errors.New("timeout")}))

	_, err := svc.Execute(context.Background(), Request{
		Command: CommandImportSheet,
		SheetID: "sheet-123",
	})
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_INPUT", derr.Code)
}
