// Package surface owns the two elements the companion adds to the page: the
// floating result panel and the trigger button. Each exists at most once.
package surface

import (
	"strings"
	"sync"

	"complexity-analyzer-go/analysis"
	"complexity-analyzer-go/dom"
	"complexity-analyzer-go/logcolors"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// Element ids. They are unique on the page.
const (
	PanelID   = "leetcode-ai-analyzer-card"
	TriggerID = "leetcode-ai-analyzer-button"
)

// Labels shown on the trigger and the panel.
const (
	IdleLabel    = "Analyze Time & Space"
	LoadingLabel = "Analyzing..."
	ResultTitle  = "Time & Space"
	ErrorTitle   = "Analysis Error"
)

// PanelKind is the variant of the panel currently shown.
type PanelKind int

const (
	PanelNone PanelKind = iota
	PanelProgress
	PanelResult
	PanelError
)

func (k PanelKind) String() string {
	switch k {
	case PanelProgress:
		return "progress"
	case PanelResult:
		return "result"
	case PanelError:
		return "error"
	default:
		return "none"
	}
}

// TriggerState is the state of the trigger button.
type TriggerState int

const (
	TriggerIdle TriggerState = iota
	TriggerLoading
)

func (s TriggerState) String() string {
	if s == TriggerLoading {
		return "loading"
	}
	return "idle"
}

const (
	panelStyle = "position:fixed;bottom:16px;right:16px;width:320px;max-width:90vw;" +
		"background:#0f172a;color:#e2e8f0;border:1px solid #1f2937;border-radius:8px;" +
		"box-shadow:0 12px 30px rgba(0,0,0,0.35);padding:14px 16px;" +
		"font-family:Inter, system-ui, -apple-system, sans-serif;z-index:2147483646;cursor:default"
	headerStyle      = "display:flex;align-items:center;justify-content:space-between;margin-bottom:10px"
	titleStyle       = "font-weight:600;font-size:14px"
	closeStyle       = "background:transparent;border:none;color:#94a3b8;cursor:pointer;font-size:14px"
	bodyStyle        = "font-size:13px;line-height:1.45"
	errorBodyStyle   = bodyStyle + ";color:#fca5a5"
	triggerBaseStyle = "margin-left:8px;padding:8px 12px;border-radius:6px;border:1px solid #1f2937;" +
		"background:#111827;color:#e2e8f0;font-size:12px;font-weight:600;" +
		"box-shadow:0 6px 16px rgba(0,0,0,0.2)"
)

// Surface renders the panel and manages the trigger on one document.
type Surface struct {
	doc *dom.Document

	panelMu sync.Mutex // serialises panel replacement
	kind    PanelKind

	triggerMu sync.Mutex
	state     TriggerState
	attaching bool
}

// New returns a Surface for doc.
func New(doc *dom.Document) *Surface {
	return &Surface{doc: doc}
}

// ShowProgress replaces the panel with a progress message.
func (s *Surface) ShowProgress(message string) {
	s.render(PanelProgress, ResultTitle, []string{message})
}

// ShowResult replaces the panel with an analysis result.
func (s *Surface) ShowResult(result analysis.Result) {
	s.render(PanelResult, ResultTitle, result.Lines())
}

// ShowError replaces the panel with an error message.
func (s *Surface) ShowError(message string) {
	s.render(PanelError, ErrorTitle, []string{message})
}

// Dismiss removes the panel, if any.
func (s *Surface) Dismiss() {
	s.panelMu.Lock()
	defer s.panelMu.Unlock()
	s.removePanelLocked()
}

// Panel returns the panel element currently on the page, or nil.
func (s *Surface) Panel() *html.Node {
	return s.doc.ElementByID(PanelID)
}

// PanelKind returns the variant on screen, or PanelNone when the panel was
// dismissed or never shown.
func (s *Surface) PanelKind() PanelKind {
	s.panelMu.Lock()
	defer s.panelMu.Unlock()
	if s.doc.ElementByID(PanelID) == nil {
		return PanelNone
	}
	return s.kind
}

// PanelText returns the panel title and lines joined by newlines, or "".
func (s *Surface) PanelText() string {
	panel := s.Panel()
	if panel == nil {
		return ""
	}
	var lines []string
	for _, n := range s.doc.QuerySelectorAll(panel, "[data-role=title], [data-role=line]") {
		lines = append(lines, s.doc.Text(n))
	}
	return strings.Join(lines, "\n")
}

func (s *Surface) render(kind PanelKind, title string, lines []string) {
	s.panelMu.Lock()
	defer s.panelMu.Unlock()

	s.removePanelLocked()

	body := s.doc.Body()
	if body == nil {
		log.Warnf("%s Page has no body, cannot show %s panel", logcolors.LogSurface, kind)
		return
	}

	doc := s.doc
	card := doc.CreateElement("div")
	doc.SetAttr(card, "id", PanelID)
	doc.SetAttr(card, "data-state", kind.String())
	doc.SetAttr(card, "style", panelStyle)

	header := doc.CreateElement("div")
	doc.SetAttr(header, "style", headerStyle)

	titleEl := doc.CreateElement("div")
	doc.SetAttr(titleEl, "data-role", "title")
	doc.SetAttr(titleEl, "style", titleStyle)
	doc.SetText(titleEl, title)

	closeBtn := doc.CreateElement("button")
	doc.SetAttr(closeBtn, "data-role", "close")
	doc.SetAttr(closeBtn, "style", closeStyle)
	doc.SetText(closeBtn, "✕")
	doc.AddEventListener(closeBtn, "click", func() { doc.Remove(card) })

	doc.AppendChild(header, titleEl)
	doc.AppendChild(header, closeBtn)
	doc.AppendChild(card, header)

	content := doc.CreateElement("div")
	if kind == PanelError {
		doc.SetAttr(content, "style", errorBodyStyle)
	} else {
		doc.SetAttr(content, "style", bodyStyle)
	}
	for _, line := range lines {
		lineEl := doc.CreateElement("div")
		doc.SetAttr(lineEl, "data-role", "line")
		doc.SetText(lineEl, line)
		doc.AppendChild(content, lineEl)
	}
	doc.AppendChild(card, content)

	s.kind = kind
	doc.AppendChild(body, card)
}

func (s *Surface) removePanelLocked() {
	// Loop in case markup we do not control reused the id.
	for existing := s.doc.ElementByID(PanelID); existing != nil; existing = s.doc.ElementByID(PanelID) {
		s.doc.Remove(existing)
	}
	s.kind = PanelNone
}
