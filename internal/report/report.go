// Package report writes relationship summaries to CSV and JSON files
// for use in spreadsheets and downstream CRM imports.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hurttlocker/rapport/internal/store"
)

// csvHeader is the flattened column set. Multi-valued fields (constraints,
// commitments) are joined into single cells.
var csvHeader = []string{
	"account_id",
	"contact_email",
	"opportunity_stage",
	"budget",
	"timeline",
	"constraints",
	"commitments",
	"sentiment_trend",
	"requires_reply",
	"notes",
	"last_interaction_summary",
}

const summaryCellLimit = 200

// WriteCSV writes summaries as a flat CSV file.
func WriteCSV(path string, summaries []*store.StoredSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, ss := range summaries {
		if err := w.Write(csvRow(ss)); err != nil {
			return fmt.Errorf("writing row for %s: %w", ss.ContactEmail, err)
		}
	}

	w.Flush()
	return w.Error()
}

func csvRow(ss *store.StoredSummary) []string {
	sum := ss.Summary

	var commitments []string
	for _, c := range sum.CommitmentsMade {
		line := c.Text
		if c.DueDate != "" {
			line += " (Due: " + c.DueDate + ")"
		}
		commitments = append(commitments, line)
	}

	lastSummary := ""
	if n := len(sum.LastThreeInteractions); n > 0 {
		lastSummary = flattenCell(sum.LastThreeInteractions[n-1].Summary)
	}

	return []string{
		ss.AccountID,
		sum.ContactEmail,
		string(sum.OpportunityStage),
		sum.Budget,
		sum.Timeline,
		sum.Constraints,
		strings.Join(commitments, "; "),
		string(sum.SentimentTrend),
		fmt.Sprintf("%t", sum.RequiresReply),
		sum.Notes,
		lastSummary,
	}
}

// flattenCell collapses newlines and caps length so merged interaction
// summaries stay readable in a single spreadsheet cell. The cap respects
// rune boundaries.
func flattenCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > summaryCellLimit {
		cut := summaryCellLimit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}

// WriteJSON writes summaries as an indented JSON array with the full
// nested structure, including recent interactions.
func WriteJSON(path string, summaries []*store.StoredSummary) error {
	type entry struct {
		AccountID string      `json:"account_id"`
		RunID     string      `json:"run_id"`
		CreatedAt string      `json:"created_at"`
		Summary   interface{} `json:"summary"`
	}

	entries := make([]entry, 0, len(summaries))
	for _, ss := range summaries {
		entries = append(entries, entry{
			AccountID: ss.AccountID,
			RunID:     ss.RunID,
			CreatedAt: ss.CreatedAt.Format(time.RFC3339),
			Summary:   ss.Summary,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
