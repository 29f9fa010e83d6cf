// Package importapp routes tabular import batches across record collections.
package importapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/estatecrm/backend/internal/domain/importing"
	"github.com/estatecrm/backend/internal/domain/record"
	"github.com/estatecrm/backend/internal/domain/registry"
	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/estatecrm/backend/internal/domain/taxonomy"
	csvimport "github.com/estatecrm/backend/internal/infrastructure/importing"
	"github.com/estatecrm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Commands accepted by Execute.
const (
	CommandImportCSV   = "import csv"
	CommandImportSheet = "import sheet"
)

// Sentinel replaces blank cells so "missing" survives as a value, never as
// an empty string or null.
const Sentinel = "-"

// PayloadArchiver stores the raw batch payload and returns its object key.
type PayloadArchiver interface {
	Archive(ctx context.Context, name string, payload []byte, contentType string) (string, error)
}

// SheetFetcher downloads an external spreadsheet as CSV bytes.
type SheetFetcher interface {
	Fetch(ctx context.Context, sheetID string) ([]byte, error)
}

// Request is one import command invocation.
type Request struct {
	Command        string
	CSV            string
	SheetID        string
	IdempotencyKey string
	RequestedBy    *uuid.UUID
}

// Result is the batch summary returned to the caller.
type Result struct {
	Summary     map[string]int `json:"summary"`
	Total       int            `json:"total"`
	Breakdown   map[string]int `json:"breakdown"`
	Note        string         `json:"note,omitempty"`
	TotalBudget string         `json:"totalBudget"`
}

// Service classifies rows with the taxonomy table and bulk-inserts them into
// their target collections.
type Service struct {
	registry       *registry.Registry
	records        record.Repository
	history        importing.HistoryRepository
	parser         *csvimport.Parser
	fetcher        SheetFetcher
	archiver       PayloadArchiver
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	metrics        *telemetry.AppMetrics
	logger         *zap.Logger
}

// Option configures optional collaborators of the Service.
type Option func(*Service)

// WithSheetFetcher enables the "import sheet" command.
func WithSheetFetcher(f SheetFetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithArchiver enables raw-payload archiving to object storage.
func WithArchiver(a PayloadArchiver) Option {
	return func(s *Service) { s.archiver = a }
}

// WithIdempotencyStore enables replay deduplication via Idempotency-Key.
func WithIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) Option {
	return func(s *Service) {
		s.idempotency = store
		s.idempotencyTTL = ttl
	}
}

// WithMetrics enables batch metrics.
func WithMetrics(m *telemetry.AppMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMaxRows caps the number of data rows accepted per batch.
func WithMaxRows(n int) Option {
	return func(s *Service) { s.parser = csvimport.NewParser(csvimport.WithMaxRows(n)) }
}

// NewService creates the import service.
func NewService(reg *registry.Registry, records record.Repository, history importing.HistoryRepository, opts ...Option) *Service {
	s := &Service{
		registry: reg,
		records:  records,
		history:  history,
		parser:   csvimport.NewParser(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs one import command and returns the batch summary. A failed
// row is absorbed into a partial count; only an unusable payload or an
// unknown command fails the batch as a whole.
func (s *Service) Execute(ctx context.Context, req Request) (*Result, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "import", "execute",
		attribute.String(telemetry.SpanAttrCommand, req.Command))
	defer span.End()
	start := time.Now()

	if s.idempotency != nil && req.IdempotencyKey != "" {
		first, err := s.idempotency.MarkProcessed(ctx, req.IdempotencyKey, s.idempotencyTTL)
		if err != nil {
			s.logger.Warn("Idempotency check failed, continuing without deduplication",
				zap.Error(err))
		} else if !first {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Import batch was already processed")
		}
	}

	var (
		payload []byte
		source  importing.Source
	)
	switch req.Command {
	case CommandImportCSV:
		source = importing.SourceCSV
		payload = []byte(req.CSV)
	case CommandImportSheet:
		source = importing.SourceSheet
		if s.fetcher == nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Sheet import is not configured")
		}
		fetched, err := s.fetcher.Fetch(ctx, req.SheetID)
		if err != nil {
			s.logger.Warn("Sheet fetch failed", zap.String("sheet_id", req.SheetID), zap.Error(err))
			return nil, shared.NewDomainError("INVALID_INPUT", "Unable to fetch sheet "+req.SheetID)
		}
		payload = fetched
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown command "+req.Command)
	}

	sheet, err := s.parser.ParseBytes(payload)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	span.SetAttributes(attribute.Int(telemetry.SpanAttrRowCount, len(sheet.Rows)))

	result := &Result{
		Summary:   map[string]int{},
		Breakdown: map[string]int{},
	}

	groups := map[string][]classifiedRow{}
	hadBlank := false
	totalBudget := decimal.Zero
	for _, row := range sheet.Rows {
		cr, blank := classifyRow(sheet.Headers, row, req.RequestedBy)
		if blank {
			hadBlank = true
		}
		if budget := strings.TrimSpace(row["budget"]); budget != "" {
			if v, err := decimal.NewFromString(budget); err == nil {
				totalBudget = totalBudget.Add(v)
			}
		}
		// Breakdown counts classified rows, not inserted ones; a target
		// without a backing collection still shows up under its label.
		result.Breakdown[taxonomy.Label(cr.target)]++
		groups[cr.target.Model] = append(groups[cr.target.Model], cr)
	}

	for model, rows := range groups {
		desc, err := s.registry.ResolveDisplayName(model)
		if err != nil {
			// The decision table names a few targets that have no backing
			// collection in this deployment; their rows count as zero.
			s.logger.Warn("No collection for import target", zap.String("model", model))
			result.Summary[model] = 0
			continue
		}
		for _, cr := range rows {
			if err := s.records.InsertOne(ctx, desc, cr.rec); err != nil {
				s.logger.Warn("Import row insert failed",
					zap.String("model", model), zap.Error(err))
				continue
			}
			result.Summary[model]++
			result.Total++
		}
	}

	if hadBlank {
		result.Note = `Some fields were blank and were stored as "` + Sentinel + `"`
	}
	result.TotalBudget = totalBudget.String()

	archiveKey := ""
	if s.archiver != nil {
		name := fmt.Sprintf("%s-%s.csv", source, uuid.New())
		key, err := s.archiver.Archive(ctx, name, payload, "text/csv")
		if err != nil {
			s.logger.Warn("Payload archive failed", zap.Error(err))
		} else {
			archiveKey = key
		}
	}

	duration := time.Since(start)
	if s.history != nil {
		h := &importing.History{
			BaseEntity:  shared.NewBaseEntity(),
			Source:      source,
			SheetID:     req.SheetID,
			RowCount:    len(sheet.Rows),
			Inserted:    result.Total,
			Summary:     result.Summary,
			Breakdown:   result.Breakdown,
			Note:        result.Note,
			ArchiveKey:  archiveKey,
			Duration:    duration,
			RequestedBy: req.RequestedBy,
		}
		if err := s.history.Create(ctx, h); err != nil {
			s.logger.Warn("Import history write failed", zap.Error(err))
		}
	}

	s.metrics.RecordImport(ctx, len(sheet.Rows), result.Total, duration)
	s.logger.Info("Import batch completed",
		zap.String("command", req.Command),
		zap.Int("rows", len(sheet.Rows)),
		zap.Int("inserted", result.Total),
		zap.Duration("duration", duration),
	)

	return result, nil
}
