package usecase

import (
	"fmt"
	"strings"
)

// BuildDigestMessage renders a plain-text lead digest for notifiers.
func BuildDigestMessage(result Result) string {
	if len(result.Leads) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d new leads (%s)\n\n", len(result.Leads), result.Outcome)
	for _, lead := range result.Leads {
		fmt.Fprintf(&b, "- %s [%s %d, %s]\n%s\nProduct: %s\n",
			lead.Company,
			lead.Grade,
			lead.Score,
			lead.Confidence,
			lead.Summary,
			lead.Product)
		for _, src := range lead.Sources {
			fmt.Fprintf(&b, "%s\n", src.URL)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
