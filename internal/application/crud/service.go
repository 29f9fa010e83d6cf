// Package crud provides the uniform record operations shared by every
// entity. A single service covers the whole registry; handlers resolve an
// entity key to a descriptor and pass it in, so no per-entity code exists.
package crud

import (
	"context"

	"github.com/estatecrm/backend/internal/domain/identity"
	"github.com/estatecrm/backend/internal/domain/record"
	"github.com/estatecrm/backend/internal/domain/registry"
	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/estatecrm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Notifier is the fire-and-forget side channel invoked after a mutation is
// durably acknowledged. Implementations absorb their own failures.
type Notifier interface {
	RecordCreated(ctx context.Context, desc registry.Descriptor, rec *record.Record, actor *identity.User)
	RecordUpdated(ctx context.Context, desc registry.Descriptor, rec *record.Record, actor *identity.User)
	RecordDeleted(ctx context.Context, desc registry.Descriptor, rec *record.Record, actor *identity.User)
}

// Pagination is the list metadata clients page with.
type Pagination struct {
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Count int64 `json:"count"`
}

// Page is one paginated list result.
type Page struct {
	Result     []record.Record `json:"result"`
	Pagination Pagination      `json:"pagination"`
}

// Summary is the count pair returned by the summary operation.
type Summary struct {
	CountFilter  int64 `json:"countFilter"`
	CountAllDocs int64 `json:"countAllDocs"`
}

// Service implements the eight uniform record operations.
type Service struct {
	records  record.Repository
	notifier Notifier
	metrics  *telemetry.AppMetrics
	logger   *zap.Logger
}

// Option configures optional collaborators of the Service.
type Option func(*Service)

// WithNotifier attaches the mutation notification side channel.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics enables operation metrics.
func WithMetrics(m *telemetry.AppMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates the CRUD service.
func NewService(records record.Repository, opts ...Option) *Service {
	s := &Service{
		records: records,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new active record. Lifecycle fields in the input are
// stripped and removed is forced to false.
func (s *Service) Create(ctx context.Context, desc registry.Descriptor, attrs map[string]any, actor *identity.User) (*record.Record, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "crud", "create",
		attribute.String(telemetry.SpanAttrEntity, desc.Key))
	defer span.End()

	rec := record.New(attrs, actorID(actor))
	if err := s.records.Create(ctx, desc, rec); err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordCRUDOperation(ctx, desc.Key, "create", false)
		return nil, err
	}

	s.metrics.RecordCRUDOperation(ctx, desc.Key, "create", true)
	if s.notifier != nil {
		s.notifier.RecordCreated(ctx, desc, rec, actor)
	}
	return rec, nil
}

// Read fetches a single non-removed record.
func (s *Service) Read(ctx context.Context, desc registry.Descriptor, id uuid.UUID) (*record.Record, error) {
	return s.records.FindByID(ctx, desc, id)
}

// Update merges the partial attribute set into the record. A soft-removed
// record cannot be updated; removed stays false on the result.
func (s *Service) Update(ctx context.Context, desc registry.Descriptor, id uuid.UUID, attrs map[string]any, actor *identity.User) (*record.Record, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "crud", "update",
		attribute.String(telemetry.SpanAttrEntity, desc.Key),
		attribute.String(telemetry.SpanAttrRecordID, id.String()))
	defer span.End()

	rec, err := s.records.Update(ctx, desc, id, record.SanitizeAttributes(attrs))
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordCRUDOperation(ctx, desc.Key, "update", false)
		return nil, err
	}

	s.metrics.RecordCRUDOperation(ctx, desc.Key, "update", true)
	if s.notifier != nil {
		s.notifier.RecordUpdated(ctx, desc, rec, actor)
	}
	return rec, nil
}

// Delete soft-removes the record, or physically deletes it when the
// descriptor disables soft delete. Employees have no deletion rights.
func (s *Service) Delete(ctx context.Context, desc registry.Descriptor, id uuid.UUID, actor *identity.User) (*record.Record, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "crud", "delete",
		attribute.String(telemetry.SpanAttrEntity, desc.Key),
		attribute.String(telemetry.SpanAttrRecordID, id.String()))
	defer span.End()

	if actor != nil && !actor.Role.CanDelete() {
		s.metrics.RecordCRUDOperation(ctx, desc.Key, "delete", false)
		return nil, shared.ErrForbidden
	}

	var (
		rec *record.Record
		err error
	)
	if desc.SoftDelete {
		rec, err = s.records.SoftRemove(ctx, desc, id)
	} else {
		rec, err = s.records.HardDelete(ctx, desc, id)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordCRUDOperation(ctx, desc.Key, "delete", false)
		return nil, err
	}

	s.metrics.RecordCRUDOperation(ctx, desc.Key, "delete", true)
	if s.notifier != nil {
		s.notifier.RecordDeleted(ctx, desc, rec, actor)
	}
	return rec, nil
}

// List returns one page of matching records with pagination metadata. An
// empty page is a valid result, not an error.
func (s *Service) List(ctx context.Context, desc registry.Descriptor, q record.ListQuery) (*Page, error) {
	q = q.Normalize()
	records, count, err := s.records.List(ctx, desc, q)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []record.Record{}
	}
	return &Page{
		Result: records,
		Pagination: Pagination{
			Page:  q.Page,
			Pages: totalPages(count, q.PageSize),
			Count: count,
		},
	}, nil
}

// ListAll returns every non-removed record without pagination metadata.
func (s *Service) ListAll(ctx context.Context, desc registry.Descriptor) ([]record.Record, error) {
	q := record.DefaultListQuery()
	q.PageSize = record.MaxPageSize
	records, _, err := s.records.List(ctx, desc, q)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []record.Record{}
	}
	return records, nil
}

// Search returns records matching the free-text grammar, unpaginated shape.
func (s *Service) Search(ctx context.Context, desc registry.Descriptor, q record.ListQuery) ([]record.Record, error) {
	q = q.Normalize()
	q.PageSize = record.MaxPageSize
	q.Page = record.DefaultPage
	records, _, err := s.records.List(ctx, desc, q)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []record.Record{}
	}
	return records, nil
}

// Filter returns records matching the equality filter, unpaginated shape.
// It shares Search's semantics; both accept the full grammar.
func (s *Service) Filter(ctx context.Context, desc registry.Descriptor, q record.ListQuery) ([]record.Record, error) {
	return s.Search(ctx, desc, q)
}

// GetSummary returns the filtered count beside the total non-removed count.
func (s *Service) GetSummary(ctx context.Context, desc registry.Descriptor, filterField, filterValue string) (*Summary, error) {
	countFilter, err := s.records.Count(ctx, desc, filterField, filterValue)
	if err != nil {
		return nil, err
	}
	countAll := countFilter
	if filterField != "" {
		countAll, err = s.records.Count(ctx, desc, "", "")
		if err != nil {
			return nil, err
		}
	}
	return &Summary{
		CountFilter:  countFilter,
		CountAllDocs: countAll,
	}, nil
}

func totalPages(count int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(count) / pageSize
	if int(count)%pageSize != 0 {
		pages++
	}
	return pages
}

func actorID(actor *identity.User) *uuid.UUID {
	if actor == nil {
		return nil
	}
	id := actor.ID
	return &id
}
