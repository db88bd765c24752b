// Package relate folds a contact's message history into one relationship
// summary: merged interactions, last-seen facts, open commitments,
// sentiment trend, and the stage/reply heuristics on top of them.
package relate

import (
	"time"

	"github.com/hurttlocker/rapport/internal/extract"
	"github.com/hurttlocker/rapport/internal/sentiment"
)

// Interaction is one or more raw messages collapsed into a single logical
// exchange. FullText is kept for analysis while the thread is processed and
// stripped from the final summary.
type Interaction struct {
	SentAt   time.Time `json:"timestamp"`
	Sender   string    `json:"sender"`
	Summary  string    `json:"summary"`
	FullText string    `json:"-"`
}

// Stage is a coarse sales-funnel classification derived from extracted
// facts.
type Stage string

const (
	StageLead         Stage = "lead"
	StageOpportunity  Stage = "opportunity"
	StageProposalSent Stage = "proposal_sent"
	StageInternal     Stage = "internal"
)

// RelationshipSummary is the one record produced per contact per run.
// Immutable after construction.
type RelationshipSummary struct {
	ContactEmail          string               `json:"contact_email"`
	LastThreeInteractions []Interaction        `json:"last_three_interactions"`
	Budget                string               `json:"budget,omitempty"`
	Timeline              string               `json:"timeline,omitempty"`
	Constraints           string               `json:"constraints,omitempty"`
	CommitmentsMade       []extract.Commitment `json:"commitments_made"`
	SentimentTrend        sentiment.Trend      `json:"sentiment_trend"`
	OpportunityStage      Stage                `json:"opportunity_stage"`
	RequiresReply         bool                 `json:"requires_reply"`
	Notes                 string               `json:"notes"`
}
