package store

import (
	"context"
	"testing"
	"time"

	"github.com/hurttlocker/rapport/internal/mail"
	"github.com/hurttlocker/rapport/internal/relate"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesSchema(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"messages", "summaries"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestMessagesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sent := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	msgs := []mail.Message{
		{Sender: "jane@acme.com", Recipient: "founder@startup.com", Subject: "hi", Body: "hello there", SentAt: sent},
		{Sender: "founder@startup.com", Recipient: "jane@acme.com", Subject: "re: hi", Body: "hi back", SentAt: sent.Add(time.Hour)},
	}

	if err := s.AddMessages(ctx, "acct-1", msgs); err != nil {
		t.Fatalf("AddMessages failed: %v", err)
	}

	got, err := s.FetchMessages(ctx, "acct-1")
	if err != nil {
		t.Fatalf("FetchMessages failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	mail.SortBySentAt(got)
	if got[0].Sender != "jane@acme.com" || !got[0].SentAt.Equal(sent) {
		t.Errorf("first message mismatch: %+v", got[0])
	}

	other, err := s.FetchMessages(ctx, "acct-2")
	if err != nil {
		t.Fatalf("FetchMessages for empty account failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("unexpected messages for other account: %d", len(other))
	}
}

func TestListAccountsAndCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sent := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	_ = s.AddMessages(ctx, "b", []mail.Message{{Sender: "x@y.com", Recipient: "z@y.com", Body: "b", SentAt: sent}})
	_ = s.AddMessages(ctx, "a", []mail.Message{
		{Sender: "x@y.com", Recipient: "z@y.com", Body: "b", SentAt: sent},
		{Sender: "z@y.com", Recipient: "x@y.com", Body: "b", SentAt: sent},
	})

	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(accounts) != 2 || accounts[0] != "a" || accounts[1] != "b" {
		t.Errorf("accounts = %v", accounts)
	}

	n, err := s.MessageCount(ctx, "a")
	if err != nil {
		t.Fatalf("MessageCount failed: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestSummariesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sum := &relate.RelationshipSummary{
		ContactEmail:     "jane@acme.com",
		Budget:           "budget is around 3k",
		SentimentTrend:   "warming",
		OpportunityStage: relate.StageOpportunity,
		RequiresReply:    true,
		Notes:            "Processed 4 emails. Found 3 meaningful interactions.",
	}

	id, err := s.SaveSummary(ctx, "run-1", "acct-1", sum)
	if err != nil {
		t.Fatalf("SaveSummary failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a row id")
	}

	got, err := s.ListSummaries(ctx, "acct-1", 0)
	if err != nil {
		t.Fatalf("ListSummaries failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(got))
	}

	ss := got[0]
	if ss.ContactEmail != "jane@acme.com" || ss.Stage != "opportunity" || !ss.RequiresReply {
		t.Errorf("indexed columns mismatch: %+v", ss)
	}
	if ss.Summary.Budget != sum.Budget || ss.Summary.SentimentTrend != sum.SentimentTrend {
		t.Errorf("payload did not round-trip: %+v", ss.Summary)
	}
}

func TestSaveSummary_NilRejected(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.SaveSummary(context.Background(), "run", "acct", nil); err == nil {
		t.Error("nil summary should be rejected")
	}
}

func TestListSummaries_AllAccounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, acct := range []string{"a", "b"} {
		_, err := s.SaveSummary(ctx, "run", acct, &relate.RelationshipSummary{
			ContactEmail:     "c@" + acct + ".com",
			SentimentTrend:   "flat",
			OpportunityStage: relate.StageLead,
		})
		if err != nil {
			t.Fatalf("SaveSummary failed: %v", err)
		}
	}

	got, err := s.ListSummaries(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListSummaries failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected summaries across accounts, got %d", len(got))
	}
}
