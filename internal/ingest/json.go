package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hurttlocker/rapport/internal/mail"
)

// JSONReader handles .json mailbox exports: an array of message objects.
type JSONReader struct{}

// CanHandle returns true for JSON file extensions.
func (j *JSONReader) CanHandle(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".json"
}

// rawMessage mirrors the export schema. Timestamp is kept as a string so
// non-RFC3339 export formats can still be parsed.
type rawMessage struct {
	Sender    string `json:"sender"`
	From      string `json:"from"`
	Recipient string `json:"recipient"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp"`
	Date      string `json:"date"`
}

// Read parses a JSON export. Elements missing a sender, body, or parseable
// timestamp are skipped.
func (j *JSONReader) Read(path string) ([]mail.Message, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, 0, nil
	}

	var raws []rawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, 0, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}

	var msgs []mail.Message
	skipped := 0
	for _, r := range raws {
		sender := firstNonEmpty(r.Sender, r.From)
		body := strings.TrimSpace(r.Body)
		ts, err := parseTimestamp(firstNonEmpty(r.Timestamp, r.Date))
		if err != nil || sender == "" || body == "" {
			skipped++
			continue
		}
		msgs = append(msgs, mail.Message{
			Sender:    sender,
			Recipient: firstNonEmpty(r.Recipient, r.To),
			Subject:   strings.TrimSpace(r.Subject),
			Body:      body,
			SentAt:    ts,
		})
	}

	return msgs, skipped, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
