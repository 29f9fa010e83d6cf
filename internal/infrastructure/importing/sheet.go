package csvimport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxSheetPayload caps the downloaded export size.
const maxSheetPayload = 20 << 20

// HTTPSheetFetcher downloads a published spreadsheet as its CSV export.
type HTTPSheetFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSheetFetcher creates a fetcher rooted at baseURL, typically the
// Google Sheets document endpoint.
func NewHTTPSheetFetcher(baseURL string, timeout time.Duration) *HTTPSheetFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSheetFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch returns the sheet's CSV export bytes.
func (f *HTTPSheetFetcher) Fetch(ctx context.Context, sheetID string) ([]byte, error) {
	sheetID = strings.TrimSpace(sheetID)
	if sheetID == "" || strings.ContainsAny(sheetID, "/?#") {
		return nil, fmt.Errorf("invalid sheet id %q", sheetID)
	}

	url := fmt.Sprintf("%s/%s/export?format=csv", f.baseURL, sheetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet %s: %w", sheetID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheet %s export returned status %d", sheetID, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSheetPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s export: %w", sheetID, err)
	}
	return data, nil
}
