package options

import "strings"

// Category is the presentation class of an assistant message.
type Category string

const (
	CategoryOptions  Category = "options"
	CategoryTemplate Category = "template"
	CategoryProse    Category = "prose"
)

// Classifier decides how an assistant message should be presented.
type Classifier interface {
	Classify(text string) Category
}

// DefaultTemplateMarkers are the phrases that mark a template or script request.
var DefaultTemplateMarkers = []string{
	"template",
	"script",
	"write your message",
	"enter your message",
	"type your message",
	"provide the message",
	"what message",
	"message you want to send",
	"paste your",
}

// KeywordClassifier applies delimiter parsing first, then a keyword match for template
// requests, and falls back to prose.
type KeywordClassifier struct {
	Markers []string
}

// NewKeywordClassifier returns a classifier using DefaultTemplateMarkers.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{Markers: DefaultTemplateMarkers}
}

// Classify implements Classifier.
func (c *KeywordClassifier) Classify(text string) Category {
	if Parse(text) != nil {
		return CategoryOptions
	}
	lower := strings.ToLower(text)
	for _, m := range c.Markers {
		if strings.Contains(lower, m) {
			return CategoryTemplate
		}
	}
	return CategoryProse
}

var defaultClassifier Classifier = NewKeywordClassifier()

// Classify uses the default keyword classifier.
func Classify(text string) Category {
	return defaultClassifier.Classify(text)
}
