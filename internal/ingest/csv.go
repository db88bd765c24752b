package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hurttlocker/rapport/internal/mail"
)

// CSVReader handles .csv and .tsv mailbox exports.
type CSVReader struct{}

// CanHandle returns true for CSV/TSV file extensions.
func (c *CSVReader) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".csv" || ext == ".tsv"
}

// columnAliases maps export header names onto our canonical fields.
var columnAliases = map[string]string{
	"sender":    "sender",
	"from":      "sender",
	"recipient": "recipient",
	"to":        "recipient",
	"subject":   "subject",
	"body":      "body",
	"message":   "body",
	"text":      "body",
	"timestamp": "timestamp",
	"date":      "timestamp",
	"sent_at":   "timestamp",
}

// Read parses a CSV export. The first row is treated as headers. Rows
// missing a sender, body, or parseable timestamp are skipped.
func (c *CSVReader) Read(path string) ([]mail.Message, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if strings.ToLower(filepath.Ext(path)) == ".tsv" {
		reader.Comma = '\t'
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("parsing CSV %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, 0, nil
	}

	// Resolve header positions once.
	cols := make(map[string]int)
	for i, h := range records[0] {
		if field, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, seen := cols[field]; !seen {
				cols[field] = i
			}
		}
	}
	for _, required := range []string{"sender", "body", "timestamp"} {
		if _, ok := cols[required]; !ok {
			return nil, 0, fmt.Errorf("%s: missing required column %q", path, required)
		}
	}

	cell := func(row []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var msgs []mail.Message
	skipped := 0
	for _, row := range records[1:] {
		ts, err := parseTimestamp(cell(row, "timestamp"))
		if err != nil {
			skipped++
			continue
		}
		sender := cell(row, "sender")
		body := cell(row, "body")
		if sender == "" || body == "" {
			skipped++
			continue
		}
		msgs = append(msgs, mail.Message{
			Sender:    sender,
			Recipient: cell(row, "recipient"),
			Subject:   cell(row, "subject"),
			Body:      body,
			SentAt:    ts,
		})
	}

	return msgs, skipped, nil
}
