package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLowercasesHeaders(t *testing.T) {
	p := NewParser()
	sheet, err := p.ParseBytes([]byte("Name,NUMBER,Category\nAsha,99,Apartment\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "number", "category"}, sheet.Headers)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "Asha", sheet.Rows[0]["name"])
	assert.Equal(t, "99", sheet.Rows[0]["number"])
}

func TestParseStripsBOM(t *testing.T) {
	p := NewParser()
	payload := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name\nvalue\n")...)
	sheet, err := p.ParseBytes(payload)
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, sheet.Headers)
}

func TestParseHeaderOnly(t *testing.T) {
	p := NewParser()
	_, err := p.ParseBytes([]byte("name,category\n"))
	assert.ErrorIs(t, err, ErrNoDataRows)
}

func TestParseEmptyPayload(t *testing.T) {
	p := NewParser()
	_, err := p.ParseBytes(nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseInvalidEncoding(t *testing.T) {
	p := NewParser()
	_, err := p.ParseBytes([]byte{0xFF, 0xFE, 0x00, 0x41, 0x00, 0x42, '\n', 0x00, 0x43})
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestParseSkipsEmptyLines(t *testing.T) {
	p := NewParser()
	sheet, err := p.ParseBytes([]byte("name\nfirst\n,\n  \nsecond\n"))
	require.NoError(t, err)
	assert.Len(t, sheet.Rows, 2)
}

func TestParseShortRowPadsEmpty(t *testing.T) {
	p := NewParser()
	sheet, err := p.ParseBytes([]byte("name,budget\nonly-name\n"))
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "only-name", sheet.Rows[0]["name"])
	assert.Equal(t, "", sheet.Rows[0]["budget"])
}

func TestParseMaxRows(t *testing.T) {
	p := NewParser(WithMaxRows(2))
	sheet, err := p.ParseBytes([]byte("name\na\nb\nc\nd\n"))
	require.NoError(t, err)
	assert.Len(t, sheet.Rows, 2)
}
