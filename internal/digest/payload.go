// Package digest turns a window of feedback rows into one validated digest
// payload: it renders the prompt, calls the completion provider, extracts and
// validates the JSON the model produced, normalizes sentiment to percentages,
// and attaches run metadata.
package digest

// Impact and confidence levels reported per theme.
const (
	LevelHigh   = "High"
	LevelMedium = "Medium"
	LevelLow    = "Low"
)

// Sentiment trend directions.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// Payload is the structured digest produced from one feedback window.
// Field names match the stored JSON representation exactly.
type Payload struct {
	TopThemes      []Theme         `json:"topThemes"`
	FrictionPoints []FrictionPoint `json:"frictionPoints"`
	Sentiment      Sentiment       `json:"sentiment"`
	FeatureSignals []string        `json:"featureSignals"`
	PMActions      PMActions       `json:"pmActions"`
	Metadata       Metadata        `json:"metadata"`
}

// Theme is one recurring topic across the feedback window.
type Theme struct {
	Theme      string   `json:"theme"`
	Mentions   int      `json:"mentions"`
	Quotes     []string `json:"quotes"`
	Impact     string   `json:"impact"`
	Confidence string   `json:"confidence"`
}

// FrictionPoint is a specific pain point with an occurrence count.
type FrictionPoint struct {
	Point string `json:"point"`
	Count int    `json:"count"`
}

// Sentiment holds the percentage split across the window plus a trend
// direction. The three percentages sum to 100 up to rounding drift.
type Sentiment struct {
	Frustrated int    `json:"frustrated"`
	Neutral    int    `json:"neutral"`
	Positive   int    `json:"positive"`
	Trend      string `json:"trend"`
}

// PMActions groups recommended follow-ups by area.
type PMActions struct {
	DocsUX     []string `json:"docsUx"`
	Validation []string `json:"validation"`
	Tracking   []string `json:"tracking"`
}

// Metadata is attached by the builder, never requested from the model.
type Metadata struct {
	Date          string   `json:"date"`
	Sources       []string `json:"sources"`
	FeedbackCount int      `json:"feedbackCount"`
}

// defaultSentiment is the neutral split used when the completion is
// unparsable or reports a zero-sum sentiment.
func defaultSentiment() Sentiment {
	return Sentiment{Frustrated: 0, Neutral: 100, Positive: 0, Trend: TrendStable}
}

// fallbackTheme labels the sentinel theme of a fallback payload.
const fallbackTheme = "Unable to parse"

// fallbackPayload is stored when the completion yields no usable JSON, so a
// run always produces a schema-valid digest.
func fallbackPayload() *Payload {
	return &Payload{
		TopThemes: []Theme{{
			Theme:      fallbackTheme,
			Mentions:   0,
			Quotes:     []string{},
			Impact:     LevelLow,
			Confidence: LevelLow,
		}},
		FrictionPoints: []FrictionPoint{},
		Sentiment:      defaultSentiment(),
		FeatureSignals: []string{},
		PMActions: PMActions{
			DocsUX:     []string{"Review AI response manually"},
			Validation: []string{},
			Tracking:   []string{},
		},
	}
}

// ensureDefaults replaces nil collections so the serialized payload always
// carries every field as an array rather than null.
func (p *Payload) ensureDefaults() {
	if p.TopThemes == nil {
		p.TopThemes = []Theme{}
	}
	for i := range p.TopThemes {
		if p.TopThemes[i].Quotes == nil {
			p.TopThemes[i].Quotes = []string{}
		}
	}
	if p.FrictionPoints == nil {
		p.FrictionPoints = []FrictionPoint{}
	}
	if p.FeatureSignals == nil {
		p.FeatureSignals = []string{}
	}
	if p.PMActions.DocsUX == nil {
		p.PMActions.DocsUX = []string{}
	}
	if p.PMActions.Validation == nil {
		p.PMActions.Validation = []string{}
	}
	if p.PMActions.Tracking == nil {
		p.PMActions.Tracking = []string{}
	}
	if p.Metadata.Sources == nil {
		p.Metadata.Sources = []string{}
	}
}

// IsFallback reports whether the payload is the unparsable-response sentinel.
func (p *Payload) IsFallback() bool {
	return len(p.TopThemes) == 1 && p.TopThemes[0].Theme == fallbackTheme
}
