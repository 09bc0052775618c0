package memory

import "regexp"

// Category tags for stored memories.
const (
	CategoryPreference = "preference"
	CategoryDecision   = "decision"
	CategoryEntity     = "entity"
	CategoryFact       = "fact"
	CategoryOther      = "other"
)

// categoryRule pairs a category with its detection pattern. The table
// is ordered: the first matching rule wins, so precedence is explicit
// here rather than implicit in code order elsewhere.
type categoryRule struct {
	category string
	pattern  *regexp.Regexp
}

// categoryRules are keyword heuristics, not ML classification. Known
// precision limitation: a sentence like "I like the decision" matches
// preference before decision.
var categoryRules = []categoryRule{
	{CategoryPreference, regexp.MustCompile(`(?i)\b(prefer|prefers|preferred|favorite|favourite|like|likes|love|loves|hate|hates|rather|enjoy|enjoys)\b`)},
	{CategoryDecision, regexp.MustCompile(`(?i)\b(decided|decide|decision|chose|chosen|choosing|agreed|settled on|going with|will use|going to use|opted)\b`)},
	{CategoryEntity, regexp.MustCompile(`(?i)\b(email|e-mail|phone|address|birthday|born|name is|named|call me|username|handle)\b|[0-9A-Za-z._%+-]+@[0-9A-Za-z.-]+\.[A-Za-z]{2,}`)},
	{CategoryFact, regexp.MustCompile(`(?i)\b(is|are|was|were|has|have|had|means|contains|runs|uses)\b`)},
}

// DetectCategory classifies text into a memory category using the
// ordered rule table; unmatched text is "other".
func DetectCategory(text string) string {
	for _, rule := range categoryRules {
		if rule.pattern.MatchString(text) {
			return rule.category
		}
	}
	return CategoryOther
}
