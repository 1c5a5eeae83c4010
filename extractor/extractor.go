// Package extractor reads the submitted source and its language from the
// host page. The page markup is not ours, so every lookup treats absence as
// a normal outcome.
package extractor

import (
	"regexp"
	"strings"

	"complexity-analyzer-go/dom"
	"complexity-analyzer-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// DefaultLanguage is reported when no strategy finds a language.
const DefaultLanguage = "javascript"

// LanguageSelectors are the known language picker locations, most specific
// first.
var LanguageSelectors = []string{
	"[data-cy=lang-select] .ant-select-selection-item",
	"[data-cy=lang-select] .select-style",
	".language-select .ant-select-selection-item",
	"[class*='language'] [class*='select']",
}

var ariaLanguage = regexp.MustCompile(`editor\s+content\s+.*?\s+(\w+)`)

// Source is the code and language read from the page.
type Source struct {
	Code     string
	Language string
}

// Strategy looks for the language on doc. ok is false when it finds nothing.
type Strategy func(doc *dom.Document) (language string, ok bool)

// Extractor reads the editor buffer and resolves the language with an
// ordered list of strategies; the first hit wins.
type Extractor struct {
	doc        *dom.Document
	strategies []Strategy
	fallback   string
}

// New returns an Extractor using DefaultStrategies. An empty fallback means
// DefaultLanguage.
func New(doc *dom.Document, fallback string) *Extractor {
	return NewWithStrategies(doc, fallback, DefaultStrategies()...)
}

// NewWithStrategies returns an Extractor with a custom strategy order.
func NewWithStrategies(doc *dom.Document, fallback string, strategies ...Strategy) *Extractor {
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultLanguage
	}
	return &Extractor{doc: doc, strategies: strategies, fallback: strings.ToLower(fallback)}
}

// DefaultStrategies returns the editor model, picker and aria-label lookups.
func DefaultStrategies() []Strategy {
	strategies := []Strategy{FromEditorModel}
	for _, selector := range LanguageSelectors {
		strategies = append(strategies, FromSelectorText(selector))
	}
	return append(strategies, FromEditorAriaLabel)
}

// Extract returns the first editor buffer and its language. Code is empty
// when the page has no editor or no open buffer; callers decide what an
// empty submission means.
func (e *Extractor) Extract() Source {
	return Source{Code: Code(e.doc), Language: e.Language()}
}

// Language runs the strategies in order and lowercases the first hit.
func (e *Extractor) Language() string {
	for _, strategy := range e.strategies {
		if lang, ok := strategy(e.doc); ok {
			return strings.ToLower(lang)
		}
	}
	log.Debugf("%s No language found on page, using %s", logcolors.LogExtractor, e.fallback)
	return e.fallback
}

// Code returns the text of the first editor model, or "".
func Code(doc *dom.Document) string {
	models, ok := doc.EditorModels()
	if !ok || len(models) == 0 || models[0] == nil {
		return ""
	}
	return models[0].Value()
}

// FromEditorModel reads the language id of the first editor model when the
// model exposes one.
func FromEditorModel(doc *dom.Document) (string, bool) {
	models, ok := doc.EditorModels()
	if !ok || len(models) == 0 {
		return "", false
	}
	reporter, ok := models[0].(dom.LanguageReporter)
	if !ok {
		return "", false
	}
	return nonEmpty(reporter.LanguageID())
}

// FromSelectorText returns a strategy reading the trimmed text of the first
// element matching selector.
func FromSelectorText(selector string) Strategy {
	return func(doc *dom.Document) (string, bool) {
		node := doc.QuerySelector(selector)
		if node == nil {
			return "", false
		}
		return nonEmpty(doc.Text(node))
	}
}

// FromEditorAriaLabel parses labels such as
// "Editor content language python3".
func FromEditorAriaLabel(doc *dom.Document) (string, bool) {
	node := doc.QuerySelector(".monaco-editor")
	if node == nil {
		return "", false
	}
	label, ok := doc.Attr(node, "aria-label")
	if !ok {
		return "", false
	}
	label = strings.ToLower(label)
	if !strings.Contains(label, "editor") {
		return "", false
	}
	match := ariaLanguage.FindStringSubmatch(label)
	if len(match) < 2 {
		return "", false
	}
	return nonEmpty(match[1])
}

func nonEmpty(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}
