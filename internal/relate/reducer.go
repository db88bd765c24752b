package relate

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/hurttlocker/rapport/internal/extract"
	"github.com/hurttlocker/rapport/internal/mail"
	"github.com/hurttlocker/rapport/internal/sentiment"
)

const (
	// defaultCollapseWindow: messages from the same sender closer together
	// than this merge into one interaction. Mailbox exports routinely
	// fragment one logical reply into several stored rows; without
	// collapsing, trend and last-interaction logic over-count turn-taking.
	defaultCollapseWindow = 10 * time.Minute

	// summaryLimit caps the stored interaction summary at creation.
	summaryLimit = 500

	// minWords: messages shorter than this after normalization are dropped
	// before the merge stage.
	minWords = 5
)

// WarmthScorer scores the warmth of a normalized text. *sentiment.Scorer
// satisfies it; tests substitute a deterministic stub.
type WarmthScorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Pipeline runs the per-contact extraction pass. Construct once and share;
// it holds only immutable configuration and the injected scorer.
type Pipeline struct {
	patterns *extract.Patterns
	noise    *mail.NoiseFilter
	scorer   WarmthScorer
	window   time.Duration
	logger   *log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCollapseWindow overrides the interaction collapse window.
func WithCollapseWindow(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.window = d
		}
	}
}

// WithPatterns overrides the extraction pattern table.
func WithPatterns(patterns *extract.Patterns) Option {
	return func(p *Pipeline) {
		if patterns != nil {
			p.patterns = patterns
		}
	}
}

// WithNoiseFilter overrides the noise classifier.
func WithNoiseFilter(f *mail.NoiseFilter) Option {
	return func(p *Pipeline) {
		if f != nil {
			p.noise = f
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a Pipeline. A nil scorer disables sentiment scoring;
// every trend then classifies as flat, which mirrors how a failing
// capability degrades.
func NewPipeline(scorer WarmthScorer, opts ...Option) *Pipeline {
	p := &Pipeline{
		patterns: extract.DefaultPatterns(),
		noise:    mail.NewNoiseFilter(),
		scorer:   scorer,
		window:   defaultCollapseWindow,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// state carries the running accumulators for one contact thread. Each
// thread's state is owned exclusively by one ProcessContact call, so
// contacts can be processed in parallel without locking.
type state struct {
	interactions []Interaction
	lastSentAt   time.Time // last retained message, merged or not
	lastSender   string

	budget      string
	timeline    string
	constraints string
	commitments []extract.Commitment
	scores      []float64
}

// ProcessContact folds one contact's messages into a summary. The input
// need not be ordered; messages are stably sorted by timestamp first.
// Returns nil only for an empty input list. Running twice on the same
// input yields identical summaries.
func (p *Pipeline) ProcessContact(ctx context.Context, contactEmail string, msgs []mail.Message, ownerEmail string) *RelationshipSummary {
	if len(msgs) == 0 {
		return nil
	}

	sorted := make([]mail.Message, len(msgs))
	copy(sorted, msgs)
	mail.SortBySentAt(sorted)

	var st state
	for _, m := range sorted {
		// Malformed rows are skipped, never fatal to the thread.
		if m.Body == "" || m.SentAt.IsZero() {
			continue
		}
		p.step(ctx, &st, m, contactEmail)
	}

	return p.summarize(&st, contactEmail, ownerEmail, len(sorted))
}

// step is one fold transition: (state, message) -> state.
func (p *Pipeline) step(ctx context.Context, st *state, m mail.Message, contact string) {
	if p.noise.IsNoise(m.Sender, m.Subject, m.Body) {
		return
	}

	cleaned := mail.CleanBody(m.Body)
	if mail.WordCount(cleaned) < minWords {
		return
	}

	sender := mail.ParseAddress(m.Sender)

	// Collapse rapid-fire messages from the same sender into the open
	// interaction. Dropped messages never reach this point, so they neither
	// break a mergeable run nor contribute content.
	if len(st.interactions) > 0 && st.lastSender == sender && m.SentAt.Sub(st.lastSentAt) < p.window {
		open := &st.interactions[len(st.interactions)-1]
		open.Summary += "\n\n[Continued] " + cleaned
		open.SentAt = m.SentAt
	} else {
		st.interactions = append(st.interactions, Interaction{
			SentAt:   m.SentAt,
			Sender:   sender,
			Summary:  truncate(cleaned, summaryLimit),
			FullText: cleaned,
		})
	}
	st.lastSentAt = m.SentAt
	st.lastSender = sender

	// Facts: last non-empty extraction wins.
	if v := p.patterns.Budget(cleaned); v != "" {
		st.budget = v
	}
	if v := p.patterns.Timeline(cleaned); v != "" {
		st.timeline = v
	}
	if v := p.patterns.Constraint(cleaned); v != "" {
		st.constraints = v
	}

	// Commitments accumulate, each tagged with the sender that made it.
	for _, c := range p.patterns.Commitments(cleaned) {
		c.MadeBy = sender
		st.commitments = append(st.commitments, c)
	}

	// Sentiment tracks the contact's warmth, never the owner's.
	if p.scorer != nil && sender == contact {
		score, err := p.scorer.Score(ctx, cleaned)
		if err != nil {
			// Lose this one score, not the contact.
			p.logger.Warn("sentiment scoring failed", "contact", contact, "err", err)
		} else {
			st.scores = append(st.scores, score)
		}
	}
}

func (p *Pipeline) summarize(st *state, contact, owner string, totalMsgs int) *RelationshipSummary {
	s := &RelationshipSummary{
		ContactEmail:     contact,
		Budget:           st.budget,
		Timeline:         st.timeline,
		Constraints:      st.constraints,
		SentimentTrend:   sentiment.Classify(st.scores),
		OpportunityStage: StageLead,
		Notes:            fmt.Sprintf("Processed %d emails. Found %d meaningful interactions.", totalMsgs, len(st.interactions)),
	}
	if len(st.interactions) == 0 {
		s.Notes = fmt.Sprintf("Processed %d emails. No meaningful interactions survived filtering.", totalMsgs)
	}

	last := st.interactions
	if len(last) > 3 {
		last = last[len(last)-3:]
	}
	s.LastThreeInteractions = make([]Interaction, len(last))
	copy(s.LastThreeInteractions, last)
	for i := range s.LastThreeInteractions {
		s.LastThreeInteractions[i].FullText = ""
	}

	if st.budget != "" || st.timeline != "" {
		s.OpportunityStage = StageOpportunity
	}
	for _, c := range st.commitments {
		if strings.Contains(strings.ToLower(c.Text), "proposal") {
			s.OpportunityStage = StageProposalSent
			break
		}
	}

	// Only commitments with a resolvable due date are actionable.
	s.CommitmentsMade = make([]extract.Commitment, 0, len(st.commitments))
	for _, c := range st.commitments {
		if c.DueDate != "" {
			s.CommitmentsMade = append(s.CommitmentsMade, c)
		}
	}

	if len(st.interactions) > 0 && st.interactions[len(st.interactions)-1].Sender == contact {
		s.RequiresReply = true
	}

	// Same-domain contacts are colleagues, not pipeline.
	if d := mail.Domain(owner); d != "" && d == mail.Domain(contact) {
		s.OpportunityStage = StageInternal
		s.Notes += " [Internal Contact]"
	}

	return s
}

// truncate caps s at limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}
