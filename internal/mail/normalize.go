package mail

import (
	"regexp"
	"strings"
)

var (
	wroteAttributionRE = regexp.MustCompile(`On .* wrote:`)
	replyHeaderRE      = regexp.MustCompile(`From:.*Sent:.*To:.*`)
	forwardBannerRE    = regexp.MustCompile(`(?i)[-]+\s*Forwarded message\s*[-]+`)
)

var signatureDelimiters = map[string]struct{}{
	"--":  {},
	"__":  {},
	"---": {},
}

// Closing salutations require the trailing comma so prose like
// "thanks for the update" survives normalization.
var closingSalutations = map[string]struct{}{
	"thanks,":    {},
	"best,":      {},
	"regards,":   {},
	"sincerely,": {},
	"cheers,":    {},
}

// CleanBody strips quoted replies, forwarded blocks, and signatures from a
// raw message body. It scans top to bottom and stops at the first line that
// looks like trailer content; everything above is kept verbatim. An empty
// or absent body yields "".
func CleanBody(body string) string {
	if body == "" {
		return ""
	}

	lines := strings.Split(body, "\n")
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if _, ok := signatureDelimiters[stripped]; ok {
			break
		}
		if wroteAttributionRE.MatchString(line) {
			break
		}
		if replyHeaderRE.MatchString(line) {
			break
		}
		if forwardBannerRE.MatchString(line) {
			break
		}
		if _, ok := closingSalutations[strings.ToLower(stripped)]; ok {
			break
		}

		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
