// Package analysis holds the complexity analysis contract shared by the
// backend route and the page companion: the result type, its validator and
// the prompt sent to the model.
package analysis

import (
	"regexp"
	"strings"
)

// bigO matches a trimmed Big-O expression such as O(n log n).
var bigO = regexp.MustCompile(`^O\(.+\)$`)

// Result is a validated complexity analysis.
type Result struct {
	Time        string `json:"time"`
	Space       string `json:"space"`
	Explanation string `json:"explanation"`
}

// Lines returns the three display lines used by the result panel.
func (r Result) Lines() []string {
	return []string{
		"Time: " + r.Time,
		"Space: " + r.Space,
		r.Explanation,
	}
}

// Check re-applies the field rules to an already constructed Result, e.g. one
// read back from the cache.
func (r Result) Check() error {
	if !IsBigO(r.Time) {
		return fieldError("time", "expected a Big-O expression like O(n)")
	}
	if !IsBigO(r.Space) {
		return fieldError("space", "expected a Big-O expression like O(1)")
	}
	if strings.TrimSpace(r.Explanation) == "" {
		return fieldError("explanation", "must not be empty")
	}
	return nil
}

// IsBigO reports whether value is a Big-O expression after trimming.
func IsBigO(value string) bool {
	return bigO.MatchString(strings.TrimSpace(value))
}
