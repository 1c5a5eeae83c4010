package watcher

import (
	"context"
	"testing"
	"time"

	"complexity-analyzer-go/analysis"
	"complexity-analyzer-go/dom"
	"complexity-analyzer-go/surface"

	"golang.org/x/net/html"
)

const problemURL = "https://leetcode.com/problems/two-sum/"

func fastOptions() Options {
	opts := DefaultOptions()
	opts.Attempts = 2
	opts.Delay = time.Millisecond
	return opts
}

func parse(t *testing.T, url, markup string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(url, markup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func triggers(doc *dom.Document) int {
	return len(doc.QuerySelectorAll(doc.Body(), "#"+surface.TriggerID))
}

func TestFindAcceptedNode(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		wantID string
	}{
		{
			name:   "strong match",
			markup: `<div id="a"><span id="verdict">  Accepted </span></div>`,
			wantID: "a",
		},
		{
			name:   "prefix beats earlier contains",
			markup: `<p id="note">Not Accepted yet</p><strong id="ok">Accepted</strong>`,
			wantID: "ok",
		},
		{
			name:   "weak match",
			markup: `<section><p id="weak">Status: Accepted</p></section>`,
			wantID: "weak",
		},
		{
			name:   "ignores other tags",
			markup: `<h1>Accepted</h1>`,
			wantID: "",
		},
		{
			name:   "case sensitive",
			markup: `<span>accepted</span>`,
			wantID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, problemURL, "<html><body>"+tt.markup+"</body></html>")
			got := FindAcceptedNode(doc, doc.Body())
			if tt.wantID == "" {
				if got != nil {
					t.Errorf("Expected no match, got %s", doc.OuterHTML(got))
				}
				return
			}
			if got != doc.ElementByID(tt.wantID) {
				t.Errorf("Expected #%s, got %v", tt.wantID, got)
			}
		})
	}
}

func TestFindAcceptedNode_IncludesRoot(t *testing.T) {
	doc := parse(t, problemURL, `<html><body><span id="s">Accepted</span></body></html>`)
	span := doc.ElementByID("s")
	if got := FindAcceptedNode(doc, span); got != span {
		t.Error("Expected the root itself to be a candidate")
	}
}

func TestFindAcceptedNode_SkipsPanel(t *testing.T) {
	doc := parse(t, problemURL, `<html><body>`+
		`<div id="`+surface.PanelID+`"><div data-role="line">Accepted inputs are scanned once.</div></div>`+
		`</body></html>`)
	panel := doc.ElementByID(surface.PanelID)

	if got := FindAcceptedNode(doc, doc.Body()); got != nil {
		t.Errorf("Expected the panel to be skipped, got %s", doc.OuterHTML(got))
	}
	if got := FindAcceptedNode(doc, panel); got != nil {
		t.Errorf("Expected nothing inside the panel, got %s", doc.OuterHTML(got))
	}
}

func TestStart_IgnoresPanelMentioningAccepted(t *testing.T) {
	doc := parse(t, problemURL, `<html><body><div id="__next"></div></body></html>`)
	surf := surface.New(doc)
	w := New(doc, surf, func() {}, fastOptions())

	if _, err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	surf.ShowResult(analysis.Result{Time: "O(n)", Space: "O(1)", Explanation: "Accepted values are counted in one pass."})

	if triggers(doc) != 0 {
		t.Errorf("Expected no trigger attached to the panel, got %d", triggers(doc))
	}
}

func TestStart_InactiveOffProblemPage(t *testing.T) {
	doc := parse(t, "https://leetcode.com/contest/", `<html><body><div id="__next"><span>Accepted</span></div></body></html>`)
	w := New(doc, surface.New(doc), func() {}, fastOptions())

	active, err := w.Start(context.Background())
	if err != nil || active {
		t.Fatalf("Expected inactive, got active=%v err=%v", active, err)
	}
	if triggers(doc) != 0 {
		t.Error("Expected no trigger off problem pages")
	}
	if doc.Subscriptions() != 0 {
		t.Error("Expected no subscription off problem pages")
	}
}

func TestStart_InitialScan(t *testing.T) {
	doc := parse(t, problemURL, `<html><body><div id="__next"><div id="r"><span>Accepted</span></div></div></body></html>`)
	w := New(doc, surface.New(doc), func() {}, fastOptions())

	active, err := w.Start(context.Background())
	if err != nil || !active {
		t.Fatalf("Expected active, got active=%v err=%v", active, err)
	}
	defer w.Stop()

	if triggers(doc) != 1 {
		t.Fatalf("Expected trigger from the initial scan, got %d", triggers(doc))
	}
}

func TestStart_ObservesLaterInsertions(t *testing.T) {
	doc := parse(t, problemURL, `<html><body><div id="__next"><div id="panel"></div></div></body></html>`)
	clicked := 0
	w := New(doc, surface.New(doc), func() { clicked++ }, fastOptions())

	if _, err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if triggers(doc) != 0 {
		t.Fatal("Expected no trigger before a verdict appears")
	}

	result := doc.CreateElement("div")
	verdict := doc.CreateElement("span")
	doc.SetText(verdict, "Accepted")
	doc.AppendChild(result, verdict)
	doc.AppendChild(doc.ElementByID("panel"), result)

	if triggers(doc) != 1 {
		t.Fatalf("Expected trigger after the verdict appeared, got %d", triggers(doc))
	}

	// Re-rendering the verdict does not add a second trigger.
	again := doc.CreateElement("p")
	doc.SetText(again, "Accepted")
	doc.AppendChild(doc.Body(), again)
	if triggers(doc) != 1 {
		t.Errorf("Expected attachment to be idempotent, got %d", triggers(doc))
	}

	doc.Click(doc.ElementByID(surface.TriggerID))
	if clicked != 1 {
		t.Errorf("Expected trigger to run the callback once, got %d", clicked)
	}
}

func TestStart_ReattachesAfterRemoval(t *testing.T) {
	doc := parse(t, problemURL, `<html><body><div id="__next"><span>Accepted</span></div></body></html>`)
	w := New(doc, surface.New(doc), func() {}, fastOptions())
	if _, err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	doc.Remove(doc.ElementByID(surface.TriggerID))

	verdict := doc.CreateElement("span")
	doc.SetText(verdict, "Accepted")
	doc.AppendChild(doc.Body(), verdict)

	if triggers(doc) != 1 {
		t.Errorf("Expected the trigger to come back, got %d", triggers(doc))
	}
}

func TestStop(t *testing.T) {
	doc := parse(t, problemURL, `<html><body><div id="__next"></div></body></html>`)
	w := New(doc, surface.New(doc), func() {}, fastOptions())
	if _, err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	w.Stop()
	w.Stop()

	verdict := doc.CreateElement("span")
	doc.SetText(verdict, "Accepted")
	doc.AppendChild(doc.Body(), verdict)

	if triggers(doc) != 0 {
		t.Error("Expected no trigger after Stop")
	}
}

func TestStart_MissingRootStillObserves(t *testing.T) {
	doc := parse(t, problemURL, `<html><body></body></html>`)
	w := New(doc, surface.New(doc), func() {}, fastOptions())
	active, err := w.Start(context.Background())
	if err != nil || !active {
		t.Fatalf("Expected active, got active=%v err=%v", active, err)
	}
	defer w.Stop()
	if doc.Subscriptions() != 1 {
		t.Errorf("Expected one subscription, got %d", doc.Subscriptions())
	}
}

func TestStart_ContextCancelled(t *testing.T) {
	doc := parse(t, problemURL, `<html><body></body></html>`)
	opts := fastOptions()
	opts.Attempts = 100
	opts.Delay = time.Hour
	w := New(doc, surface.New(doc), func() {}, opts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.Start(ctx); err == nil {
		t.Error("Expected context error")
	}
}

func TestWaitForElement(t *testing.T) {
	found := &html.Node{Type: html.ElementNode, Data: "div"}

	calls := 0
	got := WaitForElement(context.Background(), func() *html.Node {
		calls++
		if calls == 3 {
			return found
		}
		return nil
	}, 20, time.Millisecond)
	if got != found || calls != 3 {
		t.Errorf("Expected element on third poll, got %v after %d calls", got, calls)
	}

	calls = 0
	got = WaitForElement(context.Background(), func() *html.Node {
		calls++
		return nil
	}, 4, time.Millisecond)
	if got != nil {
		t.Error("Expected nil after the budget runs out")
	}
	if calls != 5 {
		t.Errorf("Expected 5 polls, got %d", calls)
	}
}
