package importing

import (
	"context"
	"time"

	"github.com/estatecrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Source identifies where an import batch came from.
type Source string

const (
	SourceCSV   Source = "csv"
	SourceSheet Source = "sheet"
)

// History records one executed import batch for audit: what was ingested,
// how it spread across collections, and where the raw payload was archived.
type History struct {
	shared.BaseEntity
	Source      Source
	SheetID     string
	RowCount    int
	Inserted    int
	Summary     map[string]int
	Breakdown   map[string]int
	Note        string
	ArchiveKey  string
	Duration    time.Duration
	RequestedBy *uuid.UUID
}

// HistoryRepository is the storage contract for import history rows.
type HistoryRepository interface {
	Create(ctx context.Context, h *History) error
	List(ctx context.Context, limit int) ([]History, error)
}
