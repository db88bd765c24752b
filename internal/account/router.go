// Package account partitions one account's raw mailbox into per-contact
// threads and infers which address belongs to the account owner.
package account

import (
	"sort"

	"github.com/hurttlocker/rapport/internal/mail"
)

// IdentifyOwner returns the address that appears most often across senders
// and recipients, with ties going to the address seen first. Known
// limitation: on a mailbox dominated by a single contact this can pick the
// contact instead of the owner; callers that know the owner should pass it
// explicitly instead.
func IdentifyOwner(msgs []mail.Message) string {
	counts := make(map[string]int)
	var order []string

	bump := func(addr string) {
		if addr == "" {
			return
		}
		if _, seen := counts[addr]; !seen {
			order = append(order, addr)
		}
		counts[addr]++
	}

	for _, m := range msgs {
		bump(mail.ParseAddress(m.Sender))
		bump(mail.ParseAddress(m.Recipient))
	}

	best := ""
	for _, addr := range order {
		if best == "" || counts[addr] > counts[best] {
			best = addr
		}
	}
	return best
}

// GroupByContact groups messages by counterparty. Rows with no usable
// counterparty, or where the owner mailed themselves, are dropped.
func GroupByContact(msgs []mail.Message, owner string) map[string][]mail.Message {
	threads := make(map[string][]mail.Message)

	for _, m := range msgs {
		sender := mail.ParseAddress(m.Sender)
		other := mail.ParseAddress(m.Recipient)
		if sender != owner {
			other = sender
		}
		if other == "" || other == owner {
			continue
		}
		threads[other] = append(threads[other], m)
	}
	return threads
}

// TopContacts returns up to n contact addresses ordered by message volume.
// Equal volumes sort alphabetically so results are deterministic.
// n <= 0 means no limit.
func TopContacts(threads map[string][]mail.Message, n int) []string {
	contacts := make([]string, 0, len(threads))
	for c := range threads {
		contacts = append(contacts, c)
	}

	sort.Slice(contacts, func(i, j int) bool {
		ci, cj := contacts[i], contacts[j]
		if len(threads[ci]) != len(threads[cj]) {
			return len(threads[ci]) > len(threads[cj])
		}
		return ci < cj
	})

	if n > 0 && len(contacts) > n {
		contacts = contacts[:n]
	}
	return contacts
}
