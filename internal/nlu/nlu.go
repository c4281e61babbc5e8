// Package nlu turns recognizer alternatives into a single scored intent and
// maps that intent to a host action.
package nlu

// Alternative is one candidate transcript from the recognizer.
type Alternative struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type Source int

const (
	SourceCorpus Source = iota + 1
	SourceKeyword
	SourceExtractor
)

func (s Source) String() string {
	switch s {
	case SourceCorpus:
		return "corpus"
	case SourceKeyword:
		return "keyword"
	case SourceExtractor:
		return "extractor"
	default:
		return "none"
	}
}

func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MatchResult is the winning candidate for one recognition event.
// SearchQuery is only set by the extractor.
type MatchResult struct {
	Score         float64 `json:"score"`
	Intent        string  `json:"intent"`
	Response      string  `json:"response"`
	SourceCommand string  `json:"source_command"`
	SearchQuery   string  `json:"search_query,omitempty"`
	Source        Source  `json:"source"`
}

const (
	IntentGreeting       = "greeting"
	IntentHelp           = "help"
	IntentStop           = "stop"
	IntentOpenWishlist   = "open_wishlist"
	IntentCompare        = "compare_programs"
	IntentCompareEmpty   = "compare_programs_empty"
	IntentSearchLoans    = "search_loans"
	IntentSearchWomen    = "search_women_loans"
	IntentSearchYouth    = "search_youth_loans"
	IntentSearchBusiness = "search_business_loans"
)
