package dialogue

// ErrorKind classifies a recognition failure.
type ErrorKind int

const (
	ErrorOther ErrorKind = iota
	ErrorNoSpeech
	ErrorAudioCapture
	ErrorNotAllowed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNoSpeech:
		return "no-speech"
	case ErrorAudioCapture:
		return "audio-capture"
	case ErrorNotAllowed:
		return "not-allowed"
	default:
		return "other"
	}
}

const (
	MsgActivated     = "नेपाली आवाज सहायक सक्रिय भयो। म तपाईंको कुरा सुन्न तयार छु।"
	MsgFarewell      = "आवाज सहायक बन्द भयो। फेरि प्रयोग गर्न माइक्रोफोनमा क्लिक गर्नुहोस्। धन्यवाद!"
	MsgNotUnderstood = "माफ गर्नुहोस्, मैले त्यो कमाण्ड बुझिन। 'सहायता' भन्नुहोस् उपलब्ध कमाण्डहरूको लागि।"
)

var errorMessages = map[ErrorKind]string{
	ErrorNoSpeech:     "कुनै आवाज सुनिएन। कृपया स्पष्ट रूपमा बोल्नुहोस्।",
	ErrorAudioCapture: "माइक्रोफोन समस्या छ। कृपया जाँच गर्नुहोस्।",
	ErrorNotAllowed:   "माइक्रोफोन अनुमति चाहिन्छ। कृपया अनुमति दिनुहोस्।",
	ErrorOther:        "माफ गर्नुहोस्, मैले बुझिन। कृपया फेरि प्रयास गर्नुहोस्।",
}

// ErrorMessage is the spoken text for a recognition failure.
func ErrorMessage(k ErrorKind) string {
	if msg, ok := errorMessages[k]; ok {
		return msg
	}
	return errorMessages[ErrorOther]
}
