// Package mail holds the raw message model and the pre-analysis hygiene
// layer: address parsing, body normalization, and noise filtering.
//
// Everything here is pure and stateless; the pipeline calls into this
// package per message before any extraction or scoring happens.
package mail

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Message is one raw mailbox row. Immutable input to the pipeline.
type Message struct {
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"timestamp"`
}

var angleAddrRE = regexp.MustCompile(`<([^>]+)>`)

// ParseAddress extracts a bare lowercase address from either
// "Name <user@host>" or a plain "user@host" string.
func ParseAddress(raw string) string {
	if raw == "" {
		return ""
	}
	if m := angleAddrRE.FindStringSubmatch(raw); m != nil {
		return strings.ToLower(strings.TrimSpace(m[1]))
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// Domain returns the part after the last "@", lowercased.
// Returns "" for strings that are not addresses.
func Domain(email string) string {
	idx := strings.LastIndex(email, "@")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(email[idx+1:])
}

// SortBySentAt orders messages by timestamp in place. The sort is stable,
// so rows sharing a timestamp keep their input order.
func SortBySentAt(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SentAt.Before(msgs[j].SentAt)
	})
}

// WordCount counts whitespace-separated tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
