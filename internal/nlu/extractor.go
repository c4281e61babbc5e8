package nlu

import (
	"slices"
	"strings"
)

const extractorScore = 0.75

var (
	loanTerms     = []string{"ऋण", "लोन", "पैसा", "क्रेडिट", "उधार"}
	womenTerms    = []string{"महिला", "आमा", "बहिनी", "स्त्री"}
	youthTerms    = []string{"युवा", "जवान", "तरुण"}
	businessTerms = []string{"व्यापार", "व्यवसाय", "बिजनेस", "उद्योग"}
)

// Extract guesses a loan search from topical words. A loan term is required;
// women, youth and business narrow it in that order.
func Extract(text string) (MatchResult, bool) {
	words := strings.Fields(text)
	has := func(terms []string) bool {
		return slices.ContainsFunc(words, func(w string) bool {
			return slices.Contains(terms, w)
		})
	}

	if !has(loanTerms) {
		return MatchResult{}, false
	}

	intent, query := IntentSearchLoans, "ऋण"
	switch {
	case has(womenTerms):
		intent, query = IntentSearchWomen, "महिला ऋण"
	case has(youthTerms):
		intent, query = IntentSearchYouth, "युवा ऋण"
	case has(businessTerms):
		intent, query = IntentSearchBusiness, "व्यापारिक ऋण"
	}

	return MatchResult{
		Score:         extractorScore,
		Intent:        intent,
		Response:      query + " कार्यक्रमहरू खोजिरहेको छु...",
		SourceCommand: text,
		SearchQuery:   query,
		Source:        SourceExtractor,
	}, true
}
