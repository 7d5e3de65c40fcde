// Package notify formats digest payloads into delivery-channel messages and
// posts them to a Slack incoming webhook. Delivery is best-effort: the
// pipeline treats a failed post as a logged warning, never as a run failure.
package notify

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/digestd/internal/digest"
)

// Message is a Slack Block Kit payload.
type Message struct {
	Blocks []Block `json:"blocks"`
}

// Block is one Block Kit block.
type Block struct {
	Type string `json:"type"`
	Text *Text  `json:"text,omitempty"`
}

// Text is a Block Kit text object.
type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

func header(text string) Block {
	return Block{Type: "header", Text: &Text{Type: "plain_text", Text: text, Emoji: true}}
}

func section(markdown string) Block {
	return Block{Type: "section", Text: &Text{Type: "mrkdwn", Text: markdown}}
}

func divider() Block {
	return Block{Type: "divider"}
}

// BuildMessage renders a digest payload into the channel message: header,
// source/volume summary, top themes, sentiment breakdown, feature signals,
// and recommended actions.
func BuildMessage(p *digest.Payload) *Message {
	blocks := []Block{
		header(fmt.Sprintf("📋 Daily Feedback Digest — %s", p.Metadata.Date)),
		section(fmt.Sprintf("*%d feedback items* across *%s*",
			p.Metadata.FeedbackCount, sourceSummary(p.Metadata.Sources))),
		divider(),
	}

	if len(p.TopThemes) > 0 {
		var b strings.Builder
		b.WriteString("*Top themes*\n")
		for _, theme := range p.TopThemes {
			fmt.Fprintf(&b, "• *%s* — %d mentions (impact: %s, confidence: %s)\n",
				theme.Theme, theme.Mentions, theme.Impact, theme.Confidence)
			for _, quote := range theme.Quotes {
				fmt.Fprintf(&b, "    _\"%s\"_\n", quote)
			}
		}
		blocks = append(blocks, section(strings.TrimRight(b.String(), "\n")))
	}

	s := p.Sentiment
	blocks = append(blocks, section(fmt.Sprintf(
		"*Sentiment* (%s %s)\n😤 %d%% frustrated · 😐 %d%% neutral · 😊 %d%% positive",
		trendEmoji(s.Trend), s.Trend, s.Frustrated, s.Neutral, s.Positive)))

	if len(p.FeatureSignals) > 0 {
		blocks = append(blocks, section(
			"*Feature signals*\n• "+strings.Join(p.FeatureSignals, "\n• ")))
	}

	if actions := actionSummary(p.PMActions); actions != "" {
		blocks = append(blocks, divider(), section(actions))
	}

	return &Message{Blocks: blocks}
}

func sourceSummary(sources []string) string {
	if len(sources) == 0 {
		return "unknown sources"
	}
	return strings.Join(sources, ", ")
}

func trendEmoji(trend string) string {
	switch trend {
	case digest.TrendUp:
		return "📈"
	case digest.TrendDown:
		return "📉"
	default:
		return "➡️"
	}
}

func actionSummary(a digest.PMActions) string {
	var b strings.Builder
	appendGroup := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "*%s*\n• %s\n", label, strings.Join(items, "\n• "))
	}
	appendGroup("Docs & UX", a.DocsUX)
	appendGroup("Validation", a.Validation)
	appendGroup("Tracking", a.Tracking)
	if b.Len() == 0 {
		return ""
	}
	return "*Recommended actions*\n" + strings.TrimRight(b.String(), "\n")
}
