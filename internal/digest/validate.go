package digest

import "fmt"

var validLevels = map[string]bool{
	LevelHigh:   true,
	LevelMedium: true,
	LevelLow:    true,
}

var validTrends = map[string]bool{
	TrendUp:     true,
	TrendDown:   true,
	TrendStable: true,
}

// validate checks a parsed payload against the schema: required fields,
// enum membership, numeric ranges. The completion is untrusted input, so a
// successful JSON parse alone proves nothing about shape.
//
// Sentiment values are validated as non-negative counts here; the [0,100]
// percentage range only holds after normalization.
func (p *Payload) validate() error {
	if len(p.TopThemes) == 0 {
		return fmt.Errorf("topThemes must not be empty")
	}
	for i, theme := range p.TopThemes {
		if theme.Theme == "" {
			return fmt.Errorf("topThemes[%d]: theme must not be empty", i)
		}
		if theme.Mentions < 0 {
			return fmt.Errorf("topThemes[%d]: mentions must be non-negative, got %d", i, theme.Mentions)
		}
		if !validLevels[theme.Impact] {
			return fmt.Errorf("topThemes[%d]: invalid impact %q", i, theme.Impact)
		}
		if !validLevels[theme.Confidence] {
			return fmt.Errorf("topThemes[%d]: invalid confidence %q", i, theme.Confidence)
		}
	}

	for i, fp := range p.FrictionPoints {
		if fp.Point == "" {
			return fmt.Errorf("frictionPoints[%d]: point must not be empty", i)
		}
		if fp.Count < 0 {
			return fmt.Errorf("frictionPoints[%d]: count must be non-negative, got %d", i, fp.Count)
		}
	}

	s := p.Sentiment
	if s.Frustrated < 0 || s.Neutral < 0 || s.Positive < 0 {
		return fmt.Errorf("sentiment values must be non-negative, got %d/%d/%d",
			s.Frustrated, s.Neutral, s.Positive)
	}
	if !validTrends[s.Trend] {
		return fmt.Errorf("invalid sentiment trend %q", s.Trend)
	}

	return nil
}
