package digest

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/digestd/internal/store"
)

// promptTemplate names the required JSON schema verbatim. The %s placeholder
// receives the rendered feedback lines.
const promptTemplate = `You are a product analyst summarizing user feedback for a product team.

Analyze the following user feedback and respond with valid JSON only, using exactly this schema:

{
  "topThemes": [
    {"theme": "string", "mentions": number, "quotes": ["string"], "impact": "High|Medium|Low", "confidence": "High|Medium|Low"}
  ],
  "frictionPoints": [
    {"point": "string", "count": number}
  ],
  "sentiment": {"frustrated": number, "neutral": number, "positive": number, "trend": "up|down|stable"},
  "featureSignals": ["string"],
  "pmActions": {"docsUx": ["string"], "validation": ["string"], "tracking": ["string"]}
}

Rules:
- Order topThemes by mentions, descending.
- Quote users verbatim; at most two quotes per theme.
- Sentiment values are counts of feedback items in each bucket.
- Respond with valid JSON only. No prose, no markdown fences.

Feedback:
%s`

// buildPrompt renders the feedback window into the instruction template.
// Each item appears as "{index}. [{source}] {content}" with unlabeled
// feedback shown as [unknown].
func buildPrompt(items []store.FeedbackItem) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, item.SourceLabel(), item.Content)
	}
	return fmt.Sprintf(promptTemplate, b.String())
}
