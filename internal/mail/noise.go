package mail

import "strings"

// defaultVendorDomains lists senders whose mail is machine-generated
// service traffic rather than a human counterparty.
var defaultVendorDomains = []string{
	"aws.amazon.com",
	"stripe.com",
	"notion.so",
	"slack.com",
	"github.com",
	"squarespace.com",
	"hubspot.com",
	"mailchimp.com",
	"paypal.com",
	"linkedin.com",
	"atlassian.com",
	"zoom.us",
	"calendly.com",
}

// spamSubjects flags transactional and bulk subject lines.
var spamSubjects = []string{
	"receipt",
	"alert",
	"confirmation",
	"invoice",
	"verification",
	"security code",
	"digest",
	"newsletter",
	"weekly",
	"daily",
	"update from",
}

// footerWindow is how many trailing characters of the raw body are checked
// for an unsubscribe link. The check runs against the raw body on purpose:
// CleanBody would remove the footer this rule depends on.
const footerWindow = 200

// NoiseFilter classifies automated vendor/bulk traffic. Build once, pass by
// reference; the domain set is immutable after construction.
type NoiseFilter struct {
	vendors map[string]struct{}
}

// NewNoiseFilter builds a filter over the built-in vendor domain set plus
// any extra domains from configuration.
func NewNoiseFilter(extraVendorDomains ...string) *NoiseFilter {
	vendors := make(map[string]struct{}, len(defaultVendorDomains)+len(extraVendorDomains))
	for _, d := range defaultVendorDomains {
		vendors[d] = struct{}{}
	}
	for _, d := range extraVendorDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			vendors[d] = struct{}{}
		}
	}
	return &NoiseFilter{vendors: vendors}
}

// IsNoise reports whether a message is automated vendor/bulk traffic that
// should be excluded from relationship analysis. Rules apply in order and
// the first hit wins.
func (f *NoiseFilter) IsNoise(sender, subject, rawBody string) bool {
	if _, ok := f.vendors[Domain(ParseAddress(sender))]; ok {
		return true
	}

	subjectLower := strings.ToLower(subject)
	for _, kw := range spamSubjects {
		if strings.Contains(subjectLower, kw) {
			return true
		}
	}

	footer := rawBody
	if len(footer) > footerWindow {
		footer = footer[len(footer)-footerWindow:]
	}
	return strings.Contains(strings.ToLower(footer), "unsubscribe")
}
