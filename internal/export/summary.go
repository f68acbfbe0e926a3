package export

import (
	"fmt"
	"strings"

	"github.com/aliskhannn/watermarkd/internal/model"
)

// maxReportedErrors caps how many literal failure messages a summary carries;
// the rest are folded into a count.
const maxReportedErrors = 5

// Summarize renders a batch result as a one-line human-readable summary:
// counts, then up to a handful of literal failure messages.
func Summarize(res model.ExportResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d succeeded, %d failed", res.SuccessCount, res.ErrorCount)

	if len(res.Errors) == 0 {
		return b.String()
	}

	n := len(res.Errors)
	shown := res.Errors
	if n > maxReportedErrors {
		shown = res.Errors[:maxReportedErrors]
	}
	b.WriteString(": ")
	b.WriteString(strings.Join(shown, "; "))
	if rest := n - len(shown); rest > 0 {
		fmt.Fprintf(&b, " (and %d more)", rest)
	}
	return b.String()
}
