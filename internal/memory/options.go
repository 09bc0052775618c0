package memory

// Options configures the orchestration engine. Zero values fall back to
// the defaults below via withDefaults.
type Options struct {
	// Namespace and UserID are server-side filters applied to searches,
	// new entries and summary partitions.
	Namespace string
	UserID    string

	// MinScore is the relevance floor for recall results, on the
	// normalized [0,1] score scale (score = 1 - distance, clamped).
	MinScore float64

	// RecallLimit caps query-specific search results injected per turn.
	RecallLimit int

	// SessionID overrides session identity derivation when set.
	SessionID string

	// Summary view configuration.
	SummaryViewName       string
	SummaryTimeWindowDays int
	SummaryGroupBy        []string

	// Extraction strategy forwarded with working-memory writes.
	// ExtractionPrompt is required when the strategy is "custom".
	ExtractionStrategy string
	ExtractionPrompt   string

	// DuplicateScore and AutoForgetScore are hand-tuned thresholds
	// carried over as defaults, not a hard contract. TODO: revisit once
	// we have recall-precision data from a production backend.
	DuplicateScore  float64
	AutoForgetScore float64
}

// Defaults for unset options.
const (
	DefaultMinScore        = 0.3
	DefaultRecallLimit     = 5
	DefaultDuplicateScore  = 0.95
	DefaultAutoForgetScore = 0.9
	DefaultSummaryViewName = "remora-rolling-summary"
	DefaultSummaryWindow   = 30

	// minRecallQueryLen skips searches for trivial prompts like greetings.
	minRecallQueryLen = 5
)

func (o Options) withDefaults() Options {
	if o.MinScore <= 0 {
		o.MinScore = DefaultMinScore
	}
	if o.RecallLimit <= 0 {
		o.RecallLimit = DefaultRecallLimit
	}
	if o.DuplicateScore <= 0 {
		o.DuplicateScore = DefaultDuplicateScore
	}
	if o.AutoForgetScore <= 0 {
		o.AutoForgetScore = DefaultAutoForgetScore
	}
	if o.SummaryViewName == "" {
		o.SummaryViewName = DefaultSummaryViewName
	}
	if o.SummaryTimeWindowDays <= 0 {
		o.SummaryTimeWindowDays = DefaultSummaryWindow
	}
	if len(o.SummaryGroupBy) == 0 {
		o.SummaryGroupBy = []string{"user_id", "namespace"}
	}
	return o
}

// scoreFromDistance converts a backend distance to the normalized
// relevance score: 1 - distance, clamped to [0,1]. All thresholding in
// the engine operates on scores, never on raw distances, so thresholds
// stay independent of the backend's metric.
func scoreFromDistance(dist float64) float64 {
	score := 1 - dist
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
