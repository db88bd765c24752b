package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/hurttlocker/rapport/internal/extract"
	"github.com/hurttlocker/rapport/internal/relate"
	"github.com/hurttlocker/rapport/internal/store"
)

func sampleSummaries() []*store.StoredSummary {
	return []*store.StoredSummary{
		{
			AccountID:    "acct-1",
			RunID:        "run-1",
			ContactEmail: "jane@acme.com",
			CreatedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			Summary: relate.RelationshipSummary{
				ContactEmail: "jane@acme.com",
				LastThreeInteractions: []relate.Interaction{
					{Sender: "jane@acme.com", Summary: "Budget is around 3k.\n\n[Continued] Also asked about timing."},
				},
				Budget:      "budget is around 3k",
				Timeline:    "timeline is Q2",
				Constraints: "must integrate with Salesforce",
				CommitmentsMade: []extract.Commitment{
					{Text: "I'll send a proposal by Friday", DueDate: "by Friday", MadeBy: "owner"},
				},
				SentimentTrend:   "warming",
				OpportunityStage: relate.StageProposalSent,
				RequiresReply:    true,
				Notes:            "Processed 4 emails. Found 3 meaningful interactions.",
			},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	if err := WriteCSV(path, sampleSummaries()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening report: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parsing report: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if rows[0][0] != "account_id" || rows[0][1] != "contact_email" {
		t.Errorf("unexpected header: %v", rows[0])
	}

	row := rows[1]
	if row[1] != "jane@acme.com" || row[2] != "proposal_sent" {
		t.Errorf("row identity fields wrong: %v", row)
	}
	if !strings.Contains(row[6], "(Due: by Friday)") {
		t.Errorf("commitment cell missing due date: %q", row[6])
	}
	if row[8] != "true" {
		t.Errorf("requires_reply = %q, want true", row[8])
	}
	if strings.Contains(row[10], "\n") {
		t.Errorf("interaction summary cell contains newline: %q", row[10])
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	if err := WriteCSV(path, nil); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "account_id,") {
		t.Errorf("empty report should still have a header, got %q", string(data))
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := WriteJSON(path, sampleSummaries()); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}

	var entries []map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0]["account_id"] != "acct-1" || entries[0]["run_id"] != "run-1" {
		t.Errorf("entry metadata wrong: %v", entries[0])
	}

	sum, ok := entries[0]["summary"].(map[string]any)
	if !ok {
		t.Fatalf("summary is not an object: %T", entries[0]["summary"])
	}
	if sum["opportunity_stage"] != "proposal_sent" || sum["sentiment_trend"] != "warming" {
		t.Errorf("nested summary fields wrong: %v", sum)
	}
}

func TestFlattenCell_CapsLength(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := flattenCell(long)
	if len(got) > summaryCellLimit+3 {
		t.Errorf("cell not capped: %d chars", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("capped cell should end with ellipsis: %q", got[len(got)-10:])
	}
}

func TestFlattenCell_RuneBoundary(t *testing.T) {
	// Multibyte text long enough to hit the cap; the cut must not leave
	// a partial rune in the cell.
	long := strings.Repeat("é", summaryCellLimit)
	got := flattenCell(long)
	if !utf8.ValidString(got) {
		t.Errorf("cell contains a split rune: %q", got[len(got)-6:])
	}
	if len(got) > summaryCellLimit+3 {
		t.Errorf("cell not capped: %d chars", len(got))
	}
}
