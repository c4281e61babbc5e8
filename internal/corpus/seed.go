package corpus

// Seed is the corpus the dialogue side starts with.
func Seed() []CommandEntry {
	return []CommandEntry{
		{
			Command:    "ऋण खोज्नुहोस्",
			Variations: []string{"लोन खोज्नुहोस्", "पैसा खोज्नुहोस्", "ऋण फेला पार्नुहोस्", "लोन देखाउनुहोस्"},
			Intent:     "search_loans",
			Confidence: 0.95,
			Response:   "ऋण कार्यक्रमहरू खोजिरहेको छु...",
		},
		{
			Command:    "महिला सशक्तिकरण कार्यक्रम खोज्नुहोस्",
			Variations: []string{"महिलाका लागि कार्यक्रम", "महिला सहायता", "महिला ऋण"},
			Intent:     "search_women_programs",
			Confidence: 0.9,
			Response:   "महिला सशक्तिकरण कार्यक्रमहरू खोजिरहेको छु...",
		},
		{
			Command:    "इच्छा सूची खोल्नुहोस्",
			Variations: []string{"विशलिस्ट खोल्नुहोस्", "मनपर्ने देखाउनुहोस्", "सुरक्षित कार्यक्रम"},
			Intent:     "open_wishlist",
			Confidence: 0.92,
			Response:   "तपाईंको इच्छा सूची खोल्दै छु...",
		},
		{
			Command:    "तुलना गर्नुहोस्",
			Variations: []string{"कम्पेयर गर्नुहोस्", "मिलाउनुहोस्", "तुलना देखाउनुहोस्"},
			Intent:     "compare_programs",
			Confidence: 0.88,
			Response:   "कार्यक्रमहरूको तुलना गर्दै छु...",
		},
	}
}

// ServerSeed is the richer corpus served by the training endpoint.
func ServerSeed() []CommandEntry {
	return []CommandEntry{
		{
			Command:    "ऋण खोज्नुहोस्",
			Variations: []string{"लोन खोज्नुहोस्", "पैसा खोज्नुहोस्", "ऋण फेला पार्नुहोस्", "लोन देखाउनुहोस्"},
			Intent:     "search_loans",
			Confidence: 0.95,
			Response:   "ऋण कार्यक्रमहरू खोजिरहेको छु...",
		},
		{
			Command:    "महिला सशक्तिकरण कार्यक्रम खोज्नुहोस्",
			Variations: []string{"महिलाका लागि कार्यक्रम", "महिला सहायता", "महिला ऋण", "आमाहरूका लागि कार्यक्रम"},
			Intent:     "search_women_programs",
			Confidence: 0.9,
			Response:   "महिला सशक्तिकरण कार्यक्रमहरू खोजिरहेको छु...",
		},
		{
			Command:    "युवा कार्यक्रम खोज्नुहोस्",
			Variations: []string{"जवानहरूका लागि कार्यक्रम", "युवा ऋण", "युवा सहायता", "तरुणहरूका लागि"},
			Intent:     "search_youth_programs",
			Confidence: 0.88,
			Response:   "युवा कार्यक्रमहरू खोजिरहेको छु...",
		},
		{
			Command:    "इच्छा सूची खोल्नुहोस्",
			Variations: []string{"विशलिस्ट खोल्नुहोस्", "मनपर्ने देखाउनुहोस्", "सुरक्षित कार्यक्रम", "सेभ गरिएको"},
			Intent:     "open_wishlist",
			Confidence: 0.92,
			Response:   "तपाईंको इच्छा सूची खोल्दै छु...",
		},
		{
			Command:    "तुलना गर्नुहोस्",
			Variations: []string{"कम्पेयर गर्नुहोस्", "मिलाउनुहोस्", "तुलना देखाउनुहोस्", "फरक देखाउनुहोस्"},
			Intent:     "compare_programs",
			Confidence: 0.88,
			Response:   "कार्यक्रमहरूको तुलना गर्दै छु...",
		},
	}
}
