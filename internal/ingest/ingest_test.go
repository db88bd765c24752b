package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestCSVReader_Basic(t *testing.T) {
	csvData := `sender,recipient,subject,body,timestamp
jane@acme.com,founder@startup.com,Project kickoff,Our budget is around 3k for this.,2025-01-10T09:00:00Z
founder@startup.com,jane@acme.com,Re: Project kickoff,Sounds great. I'll send a proposal by Friday.,2025-01-10 10:30:00
`
	path := writeTemp(t, "mailbox.csv", csvData)

	msgs, skipped, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Sender != "jane@acme.com" || msgs[0].Subject != "Project kickoff" {
		t.Errorf("first message mismatch: %+v", msgs[0])
	}
	want := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	if !msgs[0].SentAt.Equal(want) {
		t.Errorf("SentAt = %v, want %v", msgs[0].SentAt, want)
	}
	// Bare datetime without a zone is treated as UTC.
	if !msgs[1].SentAt.Equal(time.Date(2025, 1, 10, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("fallback timestamp parse wrong: %v", msgs[1].SentAt)
	}
}

func TestCSVReader_HeaderAliases(t *testing.T) {
	csvData := `From,To,Subject,Message,Date
jane@acme.com,me@startup.com,Hi,Quick question about pricing.,2025-02-01
`
	path := writeTemp(t, "export.csv", csvData)

	msgs, _, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Sender != "jane@acme.com" || msgs[0].Body != "Quick question about pricing." {
		t.Errorf("aliased columns not mapped: %+v", msgs[0])
	}
}

func TestCSVReader_SkipsMalformedRows(t *testing.T) {
	csvData := `sender,body,timestamp
jane@acme.com,hello there,2025-01-10T09:00:00Z
,missing sender,2025-01-10T09:05:00Z
jane@acme.com,bad time,not-a-date
jane@acme.com,,2025-01-10T09:10:00Z
`
	path := writeTemp(t, "mailbox.csv", csvData)

	msgs, skipped, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("expected 1 good message, got %d", len(msgs))
	}
	if skipped != 3 {
		t.Errorf("skipped = %d, want 3", skipped)
	}
}

func TestCSVReader_MissingRequiredColumn(t *testing.T) {
	path := writeTemp(t, "mailbox.csv", "sender,subject\njane@acme.com,hi\n")
	if _, _, err := ReadFile(path); err == nil {
		t.Error("expected error for missing body/timestamp columns")
	}
}

func TestJSONReader_Basic(t *testing.T) {
	jsonData := `[
  {"sender": "jane@acme.com", "recipient": "me@startup.com", "subject": "Hi", "body": "Our timeline is Q2.", "timestamp": "2025-01-10T09:00:00Z"},
  {"from": "me@startup.com", "to": "jane@acme.com", "body": "Got it.", "date": "2025-01-10 09:30:00"}
]`
	path := writeTemp(t, "mailbox.json", jsonData)

	msgs, skipped, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].Sender != "me@startup.com" || msgs[1].Recipient != "jane@acme.com" {
		t.Errorf("from/to aliases not mapped: %+v", msgs[1])
	}
}

func TestJSONReader_SkipsMalformedElements(t *testing.T) {
	jsonData := `[
  {"sender": "jane@acme.com", "body": "ok", "timestamp": "2025-01-10T09:00:00Z"},
  {"sender": "jane@acme.com", "body": "ok", "timestamp": "yesterday"},
  {"body": "no sender", "timestamp": "2025-01-10T09:00:00Z"}
]`
	path := writeTemp(t, "mailbox.json", jsonData)

	msgs, skipped, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(msgs) != 1 || skipped != 2 {
		t.Errorf("got %d messages %d skipped, want 1 and 2", len(msgs), skipped)
	}
}

func TestReadFile_UnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "mailbox.xml", "<xml/>")
	if _, _, err := ReadFile(path); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"2025-01-10T09:00:00Z", false},
		{"2025-01-10 09:00:00", false},
		{"2025-01-10 09:00", false},
		{"2025-01-10", false},
		{"", true},
		{"January 10", true},
	}
	for _, tc := range cases {
		_, err := parseTimestamp(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseTimestamp(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
	}
}
