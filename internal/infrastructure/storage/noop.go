package storage

import (
	"context"

	importapp "github.com/estatecrm/backend/internal/application/importing"
)

var _ importapp.PayloadArchiver = (*NoopArchiver)(nil)

// NoopArchiver discards payloads. Used when object storage is disabled.
type NoopArchiver struct{}

// NewNoopArchiver creates a NoopArchiver
func NewNoopArchiver() *NoopArchiver {
	return &NoopArchiver{}
}

// Archive discards the payload and returns an empty key.
func (NoopArchiver) Archive(ctx context.Context, name string, payload []byte, contentType string) (string, error) {
	return "", nil
}
