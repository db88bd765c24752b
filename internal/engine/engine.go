// Package engine orchestrates a full analysis run: load an account's
// messages, pick the contacts worth summarizing, fold each contact's thread
// into a relationship summary, and persist the results.
package engine

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hurttlocker/rapport/internal/account"
	"github.com/hurttlocker/rapport/internal/mail"
	"github.com/hurttlocker/rapport/internal/relate"
	"github.com/hurttlocker/rapport/internal/store"
)

const defaultWorkers = 4

// Engine ties the store and the relationship pipeline together.
type Engine struct {
	store       *store.Store
	pipe        *relate.Pipeline
	logger      *log.Logger
	workers     int
	topContacts int
}

type Option func(*Engine)

// WithWorkers bounds how many contacts are analyzed concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithTopContacts caps how many contacts are summarized per run, by
// message volume. Zero or negative means no cap.
func WithTopContacts(n int) Option {
	return func(e *Engine) {
		e.topContacts = n
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func New(st *store.Store, pipe *relate.Pipeline, opts ...Option) *Engine {
	e := &Engine{
		store:       st,
		pipe:        pipe,
		logger:      log.Default(),
		workers:     defaultWorkers,
		topContacts: 5,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunResult reports what one analysis run produced.
type RunResult struct {
	RunID      string
	AccountID  string
	OwnerEmail string
	Contacts   []string
	Saved      int
	Failed     int
}

// AnalyzeAccount summarizes the account's top contacts and persists one
// summary per contact. ownerOverride skips owner inference when set.
// Per-contact failures are logged and counted but do not abort the run.
func (e *Engine) AnalyzeAccount(ctx context.Context, accountID, ownerOverride string) (*RunResult, error) {
	msgs, err := e.store.FetchMessages(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("loading messages for %q: %w", accountID, err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("no messages stored for account %q", accountID)
	}

	owner := mail.ParseAddress(ownerOverride)
	if owner == "" {
		owner = account.IdentifyOwner(msgs)
	}
	if owner == "" {
		return nil, fmt.Errorf("could not determine mailbox owner for %q", accountID)
	}

	threads := account.GroupByContact(msgs, owner)
	contacts := account.TopContacts(threads, e.topContacts)

	result := &RunResult{
		RunID:      uuid.New().String(),
		AccountID:  accountID,
		OwnerEmail: owner,
		Contacts:   contacts,
	}

	e.logger.Info("starting analysis run",
		"run_id", result.RunID, "account", accountID, "owner", owner, "contacts", len(contacts))

	summaries := make([]*relate.RelationshipSummary, len(contacts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, contact := range contacts {
		g.Go(func() error {
			summaries[i] = e.pipe.ProcessContact(gctx, contact, threads[contact], owner)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis run %s interrupted: %w", result.RunID, err)
	}

	// Persist sequentially; sqlite writes are serialized anyway.
	for i, sum := range summaries {
		if sum == nil {
			continue
		}
		if _, err := e.store.SaveSummary(ctx, result.RunID, accountID, sum); err != nil {
			e.logger.Error("failed to save summary", "contact", contacts[i], "err", err)
			result.Failed++
			continue
		}
		result.Saved++
	}

	e.logger.Info("analysis run complete",
		"run_id", result.RunID, "saved", result.Saved, "failed", result.Failed)

	return result, nil
}
