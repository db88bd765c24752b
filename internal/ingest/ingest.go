// Package ingest reads mailbox export files into messages.
//
// Two formats are supported: CSV with a header row, and JSON arrays of
// message objects. Both map onto the same column names (sender, recipient,
// subject, body, timestamp) so exports from different mail tools can be
// loaded without preprocessing.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hurttlocker/rapport/internal/mail"
)

// Reader parses a mailbox export file into messages.
type Reader interface {
	// CanHandle reports whether this reader recognizes the file extension.
	CanHandle(path string) bool

	// Read parses the file. Rows that cannot be parsed are skipped and
	// reported in the returned count rather than failing the whole file.
	Read(path string) ([]mail.Message, int, error)
}

// Readers returns all registered mailbox readers.
func Readers() []Reader {
	return []Reader{
		&CSVReader{},
		&JSONReader{},
	}
}

// ReadFile picks a reader by extension and parses the file.
// The second return value is the number of rows skipped as malformed.
func ReadFile(path string) ([]mail.Message, int, error) {
	for _, r := range Readers() {
		if r.CanHandle(path) {
			return r.Read(path)
		}
	}
	return nil, 0, fmt.Errorf("unsupported mailbox format: %s", filepath.Ext(path))
}

// timestampFormats are tried in order when parsing message times.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp accepts the common export formats. Times without a zone
// are interpreted as UTC.
func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampFormats {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
