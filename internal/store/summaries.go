package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hurttlocker/rapport/internal/relate"
)

// StoredSummary is a persisted relationship summary row. The full record
// round-trips through the JSON payload column; the indexed columns exist
// for listing and filtering without decoding.
type StoredSummary struct {
	ID            string
	RunID         string
	AccountID     string
	ContactEmail  string
	Stage         string
	Trend         string
	RequiresReply bool
	Summary       relate.RelationshipSummary
	CreatedAt     time.Time
}

// SaveSummary persists one summary under the given run id and returns the
// new row id.
func (s *Store) SaveSummary(ctx context.Context, runID, accountID string, sum *relate.RelationshipSummary) (string, error) {
	if sum == nil {
		return "", fmt.Errorf("nil summary")
	}

	payload, err := json.Marshal(sum)
	if err != nil {
		return "", fmt.Errorf("encoding summary payload: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO summaries (id, run_id, account_id, contact_email, opportunity_stage, sentiment_trend, requires_reply, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, runID, accountID, sum.ContactEmail, string(sum.OpportunityStage), string(sum.SentimentTrend),
		boolToInt(sum.RequiresReply), string(payload), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("inserting summary for %q: %w", sum.ContactEmail, err)
	}
	return id, nil
}

// ListSummaries returns stored summaries, newest first. An empty accountID
// lists across all accounts.
func (s *Store) ListSummaries(ctx context.Context, accountID string, limit int) ([]*StoredSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, run_id, account_id, contact_email, opportunity_stage, sentiment_trend, requires_reply, payload, created_at
	          FROM summaries`
	args := []any{}
	if accountID != "" {
		query += ` WHERE account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY created_at DESC, contact_email LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying summaries: %w", err)
	}
	defer rows.Close()

	var out []*StoredSummary
	for rows.Next() {
		var (
			ss       StoredSummary
			reply    int
			payload  string
		)
		if err := rows.Scan(&ss.ID, &ss.RunID, &ss.AccountID, &ss.ContactEmail,
			&ss.Stage, &ss.Trend, &reply, &payload, &ss.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		ss.RequiresReply = reply != 0
		if err := json.Unmarshal([]byte(payload), &ss.Summary); err != nil {
			return nil, fmt.Errorf("decoding summary payload %s: %w", ss.ID, err)
		}
		out = append(out, &ss)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
