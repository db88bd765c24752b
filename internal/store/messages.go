package store

import (
	"context"
	"fmt"

	"github.com/hurttlocker/rapport/internal/mail"
)

// AddMessages inserts a batch of raw messages for one account in a single
// transaction.
func (s *Store) AddMessages(ctx context.Context, accountID string, msgs []mail.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO messages (account_id, sender, recipient, subject, body, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range msgs {
		if _, err := stmt.ExecContext(ctx, accountID, m.Sender, m.Recipient, m.Subject, m.Body, m.SentAt.UTC()); err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
	}

	return tx.Commit()
}

// FetchMessages returns all raw messages for an account. No ordering is
// guaranteed; the pipeline sorts by timestamp itself.
func (s *Store) FetchMessages(ctx context.Context, accountID string) ([]mail.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sender, recipient, subject, body, sent_at FROM messages WHERE account_id = ?`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("querying messages for account %q: %w", accountID, err)
	}
	defer rows.Close()

	var msgs []mail.Message
	for rows.Next() {
		var m mail.Message
		if err := rows.Scan(&m.Sender, &m.Recipient, &m.Subject, &m.Body, &m.SentAt); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// ListAccounts returns the distinct account ids with stored messages.
func (s *Store) ListAccounts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT account_id FROM messages ORDER BY account_id`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning account id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MessageCount returns the number of stored messages for an account.
func (s *Store) MessageCount(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE account_id = ?`, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return n, nil
}
