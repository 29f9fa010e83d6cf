// Package csvimport parses uploaded CSV payloads into tabular sheets.
package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Common parse errors
var (
	// ErrEmptyFile is returned when the payload is empty
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned when the payload is not valid UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when the payload has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")

	// ErrNoDataRows is returned when the payload has a header but no data rows
	ErrNoDataRows = errors.New("No data rows found")
)

// Sheet is a parsed tabular payload. Headers are lower-cased, rows keep
// their original cell text keyed by the lower-cased header.
type Sheet struct {
	Headers []string
	Rows    []map[string]string
}

// Parser reads CSV payloads into Sheets
type Parser struct {
	delimiter  rune
	lazyQuotes bool
	maxRows    int
}

// ParserOption is a functional option for Parser configuration
type ParserOption func(*Parser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.delimiter = d
	}
}

// WithMaxRows caps the number of data rows parsed. Zero means no cap.
func WithMaxRows(n int) ParserOption {
	return func(p *Parser) {
		p.maxRows = n
	}
}

// NewParser creates a Parser
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		delimiter:  ',',
		lazyQuotes: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads an entire CSV payload into a Sheet. The first line is the
// header row; header names are trimmed and lower-cased so downstream field
// lookups are case-insensitive. Completely empty lines are skipped.
func (p *Parser) Parse(r io.Reader) (*Sheet, error) {
	buf := bufio.NewReader(r)

	// Strip UTF-8 BOM if present
	head, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	if err := validateUTF8(buf); err != nil {
		return nil, err
	}

	reader := csv.NewReader(buf)
	reader.Comma = p.delimiter
	reader.LazyQuotes = p.lazyQuotes
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headerRecord, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	headers := make([]string, len(headerRecord))
	for i, h := range headerRecord {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	sheet := &Sheet{Headers: headers}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading row %d: %w", line, err)
		}

		row := make(map[string]string, len(headers))
		empty := true
		for i, header := range headers {
			value := ""
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			if value != "" {
				empty = false
			}
			row[header] = value
		}
		if empty {
			continue
		}

		sheet.Rows = append(sheet.Rows, row)
		if p.maxRows > 0 && len(sheet.Rows) >= p.maxRows {
			break
		}
	}

	if len(sheet.Rows) == 0 {
		return nil, ErrNoDataRows
	}

	return sheet, nil
}

// ParseBytes parses a CSV payload held in memory
func (p *Parser) ParseBytes(data []byte) (*Sheet, error) {
	return p.Parse(bytes.NewReader(data))
}

func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}
	if !utf8.Valid(content) {
		// A multi-byte rune may be split at the peek boundary; only reject
		// when the invalid sequence is not at the very end.
		trimmed := content
		for len(trimmed) > 0 && !utf8.Valid(trimmed) {
			trimmed = trimmed[:len(trimmed)-1]
		}
		if len(content)-len(trimmed) > utf8.UTFMax {
			return ErrInvalidEncoding
		}
	}
	return nil
}
