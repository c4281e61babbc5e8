package nlu

import "strings"

// KeywordSet triggers when a transcript contains any of its phrases.
type KeywordSet struct {
	Intent   string
	Score    float64
	Response string
	Phrases  []string
}

const (
	GreetingResponse = "नमस्ते! म तपाईंको THAILI नेपाली आवाज सहायक हुँ। म तपाईंलाई वित्तीय कार्यक्रमहरू खोज्न, नेभिगेट गर्न र जानकारी प्रदान गर्न मद्दत गर्न सक्छु।"
	HelpResponse     = "उपलब्ध कमाण्डहरू: 'ऋण खोज्नुहोस्', 'महिला कार्यक्रम खोज्नुहोस्', 'इच्छा सूची खोल्नुहोस्', 'तुलना गर्नुहोस्', वा 'बन्द गर्नुहोस्'।"
	StopResponse     = "आवाज सहायक बन्द गर्दै छु। धन्यवाद!"
)

// evaluated in order, the first set that triggers wins
var keywordSets = []KeywordSet{
	{
		Intent:   IntentGreeting,
		Score:    0.95,
		Response: GreetingResponse,
		Phrases:  []string{"नमस्ते", "नमस्कार", "हेलो", "हाई", "सुरु गर्नुहोस्", "शुरू गर्नुहोस्", "आवाज सहायक", "बोल्न सक्छु", "सुन्नुहोस्"},
	},
	{
		Intent:   IntentHelp,
		Score:    0.90,
		Response: HelpResponse,
		Phrases:  []string{"सहायता", "मद्दत", "गाइड", "निर्देशन", "के गर्न सक्नुहुन्छ", "कमाण्ड", "आदेश", "हेल्प", "असिस्ट"},
	},
	{
		Intent:   IntentStop,
		Score:    0.95,
		Response: StopResponse,
		Phrases:  []string{"रोक्नुहोस्", "बन्द गर्नुहोस्", "समाप्त गर्नुहोस्", "अन्त्य गर्नुहोस्", "स्टप", "फिनिस", "एन्ड", "क्लोज"},
	},
}

// catch-all table, never a match on its own
var vocabulary = map[string][]string{
	"search": {
		"खोज्नुहोस्", "फेला पार्नुहोस्", "देखाउनुहोस्", "खोजी गर्नुहोस्", "पत्ता लगाउनुहोस्",
		"भेट्टाउनुहोस्", "खोज", "सर्च", "फाइन्ड", "ऋण खोज्नुहोस्", "लोन खोज्नुहोस्",
		"पैसा खोज्नुहोस्", "बैंक खोज्नुहोस्", "माइक्रोफाइनान्स खोज्नुहोस्", "सहायता खोज्नुहोस्",
	},
	"navigate": {
		"जानुहोस्", "खोल्नुहोस्", "लैजानुहोस्", "देखाउनुहोस्", "प्रदर्शन गर्नुहोस्", "इच्छा सूची",
		"विशलिस्ट", "मनपर्ने", "सुरक्षित", "सेभ गरिएको", "तुलना गर्नुहोस्", "कम्पेयर गर्नुहोस्", "मिलाउनुहोस्",
	},
	"read": {
		"पढ्नुहोस्", "भन्नुहोस्", "व्याख्या गर्नुहोस्", "बताउनुहोस्", "सुनाउनुहोस्", "वर्णन गर्नुहोस्", "जानकारी दिनुहोस्",
	},
}

var vocabularyOrder = []string{"search", "navigate", "read"}

// Category names the vocabulary group ("search", "navigate" or "read") whose
// terms appear in text, or "" when none do.
func Category(text string) string {
	text = strings.ToLower(text)
	for _, cat := range vocabularyOrder {
		for _, term := range vocabulary[cat] {
			if strings.Contains(text, term) {
				return cat
			}
		}
	}
	return ""
}

// CommandHelp is the per-category list of example commands.
type CommandHelp struct {
	Search   string `json:"search"`
	Navigate string `json:"navigate"`
	Help     string `json:"help"`
	Stop     string `json:"stop"`
}

func AvailableCommands() CommandHelp {
	return CommandHelp{
		Search:   "ऋण खोज्नुहोस्, महिला कार्यक्रम खोज्नुहोस्, युवा कार्यक्रम खोज्नुहोस्",
		Navigate: "इच्छा सूची खोल्नुहोस्, तुलना गर्नुहोस्",
		Help:     "सहायता, मद्दत",
		Stop:     "बन्द गर्नुहोस्, रोक्नुहोस्",
	}
}
