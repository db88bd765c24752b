package engine

import (
	"context"
	"testing"
	"time"

	"github.com/hurttlocker/rapport/internal/mail"
	"github.com/hurttlocker/rapport/internal/relate"
	"github.com/hurttlocker/rapport/internal/store"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	pipe := relate.NewPipeline(nil)
	return New(st, pipe, opts...), st
}

func seedMessages(t *testing.T, st *store.Store, accountID string) {
	t.Helper()
	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	msgs := []mail.Message{
		{Sender: "owner@startup.com", Recipient: "jane@acme.com", Subject: "Kickoff",
			Body: "Excited to get started on the project together.", SentAt: base},
		{Sender: "jane@acme.com", Recipient: "owner@startup.com", Subject: "Re: Kickoff",
			Body: "Thanks for reaching out. Our budget is around 3k for this phase.", SentAt: base.Add(time.Hour)},
		{Sender: "bob@widgets.io", Recipient: "owner@startup.com", Subject: "Question",
			Body: "Quick question about your pricing and onboarding process.", SentAt: base.Add(2 * time.Hour)},
		{Sender: "owner@startup.com", Recipient: "bob@widgets.io", Subject: "Re: Question",
			Body: "Happy to walk you through it whenever works for you.", SentAt: base.Add(3 * time.Hour)},
	}
	if err := st.AddMessages(context.Background(), accountID, msgs); err != nil {
		t.Fatalf("seeding messages: %v", err)
	}
}

func TestAnalyzeAccount_InfersOwner(t *testing.T) {
	e, st := newTestEngine(t)
	seedMessages(t, st, "acct-1")

	res, err := e.AnalyzeAccount(context.Background(), "acct-1", "")
	if err != nil {
		t.Fatalf("AnalyzeAccount failed: %v", err)
	}
	if res.OwnerEmail != "owner@startup.com" {
		t.Errorf("owner = %q, want owner@startup.com", res.OwnerEmail)
	}
	if res.Saved != 2 || res.Failed != 0 {
		t.Errorf("saved=%d failed=%d, want 2/0", res.Saved, res.Failed)
	}
	if res.RunID == "" {
		t.Error("expected a run id")
	}

	stored, err := st.ListSummaries(context.Background(), "acct-1", 0)
	if err != nil {
		t.Fatalf("ListSummaries failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored summaries, got %d", len(stored))
	}
	for _, ss := range stored {
		if ss.RunID != res.RunID {
			t.Errorf("summary run id %q != %q", ss.RunID, res.RunID)
		}
	}
}

func TestAnalyzeAccount_OwnerOverride(t *testing.T) {
	e, st := newTestEngine(t)
	seedMessages(t, st, "acct-1")

	res, err := e.AnalyzeAccount(context.Background(), "acct-1", "Jane <jane@acme.com>")
	if err != nil {
		t.Fatalf("AnalyzeAccount failed: %v", err)
	}
	if res.OwnerEmail != "jane@acme.com" {
		t.Errorf("owner = %q, want jane@acme.com", res.OwnerEmail)
	}
	for _, c := range res.Contacts {
		if c == "jane@acme.com" {
			t.Error("owner must not appear as a contact")
		}
	}
}

func TestAnalyzeAccount_TopContactsCap(t *testing.T) {
	e, st := newTestEngine(t, WithTopContacts(1))
	seedMessages(t, st, "acct-1")

	res, err := e.AnalyzeAccount(context.Background(), "acct-1", "")
	if err != nil {
		t.Fatalf("AnalyzeAccount failed: %v", err)
	}
	if len(res.Contacts) != 1 {
		t.Errorf("expected 1 contact with cap, got %d", len(res.Contacts))
	}
}

func TestAnalyzeAccount_EmptyAccount(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.AnalyzeAccount(context.Background(), "missing", ""); err == nil {
		t.Error("expected error for account with no messages")
	}
}

func TestAnalyzeAccount_CancelledContext(t *testing.T) {
	e, st := newTestEngine(t)
	seedMessages(t, st, "acct-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.AnalyzeAccount(ctx, "acct-1", ""); err == nil {
		t.Error("expected error for cancelled context")
	}
}
