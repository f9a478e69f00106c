package lumiere

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// LanguageDetector names the language of an utterance. ok is false when
// the detector is not confident.
type LanguageDetector interface {
	Detect(text string) (language string, ok bool)
}

// linguaLanguages are the languages the wearable transcribes reliably.
var linguaLanguages = []lingua.Language{
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Spanish,
}

// minWordsForDetection skips detection on utterances too short to classify.
const minWordsForDetection = 3

type linguaDetector struct {
	detector lingua.LanguageDetector
}

// NewLanguageDetector returns a lingua-backed detector restricted to the
// common wearable languages.
func NewLanguageDetector() LanguageDetector {
	return &linguaDetector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(linguaLanguages...).
			WithMinimumRelativeDistance(0.25).
			Build(),
	}
}

func (d *linguaDetector) Detect(text string) (string, bool) {
	if len(strings.Fields(text)) < minWordsForDetection {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return lang.String(), true
}
