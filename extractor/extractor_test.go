package extractor

import (
	"testing"

	"complexity-analyzer-go/dom"
)

const problemURL = "https://leetcode.com/problems/two-sum/"

// plainModel is an editor buffer that does not expose a language id.
type plainModel struct{ text string }

func (p plainModel) Value() string { return p.text }

func page(t *testing.T, markup string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(problemURL, markup)
	if err != nil {
		t.Fatalf("Failed to parse fixture: %v", err)
	}
	return doc
}

func TestExtract_Code(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(doc *dom.Document)
		expected string
	}{
		{
			name:     "no editor host",
			setup:    func(doc *dom.Document) {},
			expected: "",
		},
		{
			name:     "editor without models",
			setup:    func(doc *dom.Document) { doc.InstallEditor() },
			expected: "",
		},
		{
			name: "first model wins",
			setup: func(doc *dom.Document) {
				doc.InstallEditor(&dom.Model{Text: "return 1"}, &dom.Model{Text: "return 2"})
			},
			expected: "return 1",
		},
		{
			name:     "whitespace is preserved",
			setup:    func(doc *dom.Document) { doc.InstallEditor(plainModel{text: "  x = 1\n"}) },
			expected: "  x = 1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := dom.New(problemURL)
			tt.setup(doc)
			got := New(doc, "").Extract()
			if got.Code != tt.expected {
				t.Errorf("Expected code %q, got %q", tt.expected, got.Code)
			}
		})
	}
}

func TestLanguage_StrategyOrder(t *testing.T) {
	tests := []struct {
		name     string
		markup   string
		model    dom.TextModel
		fallback string
		expected string
	}{
		{
			name:     "editor model language wins",
			markup:   `<div data-cy="lang-select"><span class="ant-select-selection-item">Java</span></div>`,
			model:    &dom.Model{Text: "x", Language: "python"},
			expected: "python",
		},
		{
			name:     "empty model language falls through to picker",
			markup:   `<div data-cy="lang-select"><span class="ant-select-selection-item"> Python3 </span></div>`,
			model:    &dom.Model{Text: "x"},
			expected: "python3",
		},
		{
			name:     "model without language id falls through",
			markup:   `<div data-cy="lang-select"><div class="select-style">C++</div></div>`,
			model:    plainModel{text: "x"},
			expected: "c++",
		},
		{
			name:     "legacy language-select picker",
			markup:   `<div class="language-select"><span class="ant-select-selection-item">Rust</span></div>`,
			expected: "rust",
		},
		{
			name:     "loose class match",
			markup:   `<div class="editor-language-bar"><button class="lang-selector">TypeScript</button></div>`,
			expected: "typescript",
		},
		{
			name:     "aria label",
			markup:   `<div class="monaco-editor" aria-label="Editor content language Kotlin"></div>`,
			expected: "kotlin",
		},
		{
			name:     "aria label without editor keyword is ignored",
			markup:   `<div class="monaco-editor" aria-label="code area go"></div>`,
			expected: "javascript",
		},
		{
			name:     "empty picker text is skipped",
			markup:   `<div data-cy="lang-select"><span class="ant-select-selection-item">   </span></div>`,
			expected: "javascript",
		},
		{
			name:     "custom fallback",
			markup:   `<div></div>`,
			fallback: "Python3",
			expected: "python3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := page(t, tt.markup)
			if tt.model != nil {
				doc.InstallEditor(tt.model)
			}
			got := New(doc, tt.fallback).Language()
			if got != tt.expected {
				t.Errorf("Expected language %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNewWithStrategies_ShortCircuits(t *testing.T) {
	doc := dom.New(problemURL)
	calls := 0
	miss := func(*dom.Document) (string, bool) { calls++; return "", false }
	hit := func(*dom.Document) (string, bool) { calls++; return "Go", true }
	never := func(*dom.Document) (string, bool) {
		t.Error("Expected strategies after a hit not to run")
		return "", false
	}

	got := NewWithStrategies(doc, "", miss, hit, never).Language()
	if got != "go" {
		t.Errorf("Expected %q, got %q", "go", got)
	}
	if calls != 2 {
		t.Errorf("Expected 2 strategy calls, got %d", calls)
	}
}
