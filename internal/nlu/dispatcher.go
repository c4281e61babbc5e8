package nlu

import (
	"strings"
	"unicode/utf8"
)

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionSearch
	ActionNavigate
	ActionStop
)

func (k ActionKind) String() string {
	switch k {
	case ActionSearch:
		return "search"
	case ActionNavigate:
		return "navigate"
	case ActionStop:
		return "stop"
	default:
		return "none"
	}
}

// Action is the host side effect of a match. Intent may differ from the
// match when dispatch rewrites it.
type Action struct {
	Kind   ActionKind
	Intent string
	Query  string
	Target string
}

const (
	TargetWishlist = "wishlist"
	TargetCompare  = "compare"
)

// Dispatch maps a match to an action. Compare needs at least one selected
// program upstream; without one the intent becomes compare_programs_empty.
func Dispatch(res MatchResult, hasSelection bool) Action {
	act := Action{Intent: res.Intent}

	switch {
	case strings.HasPrefix(res.Intent, "search_"):
		act.Kind = ActionSearch
		act.Query = res.SearchQuery
		if act.Query == "" {
			act.Query = ExtractSearchTerms(res.SourceCommand)
		}
	case res.Intent == IntentOpenWishlist:
		act.Kind = ActionNavigate
		act.Target = TargetWishlist
	case res.Intent == IntentCompare:
		if hasSelection {
			act.Kind = ActionNavigate
			act.Target = TargetCompare
		} else {
			act.Intent = IntentCompareEmpty
		}
	case res.Intent == IntentStop:
		act.Kind = ActionStop
	}

	return act
}

var searchTerms = map[string]string{
	"ऋण":             "loan",
	"लोन":            "loan",
	"महिला":          "women",
	"युवा":           "youth",
	"व्यापार":        "business",
	"किसान":          "agriculture",
	"सहकारी":         "cooperative",
	"माइक्रोफाइनान्स": "microfinance",
	"बैंक":           "bank",
}

// ExtractSearchTerms turns a Nepali command into a search query. Known
// terms are translated, other words longer than two runes are kept.
func ExtractSearchTerms(command string) string {
	var out []string
	for _, w := range strings.Split(command, " ") {
		if t, ok := searchTerms[w]; ok {
			out = append(out, t)
		} else if utf8.RuneCountInString(w) > 2 {
			out = append(out, w)
		}
	}

	if len(out) == 0 {
		return command
	}
	return strings.Join(out, " ")
}
