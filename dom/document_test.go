package dom

import (
	"strings"
	"sync"
	"testing"

	"golang.org/x/net/html"
)

const problemURL = "https://leetcode.com/problems/two-sum/"

func mustParse(t *testing.T, markup string) *Document {
	t.Helper()
	doc, err := ParseString(problemURL, markup)
	if err != nil {
		t.Fatalf("Failed to parse fixture: %v", err)
	}
	return doc
}

func TestNew_HasBody(t *testing.T) {
	doc := New(problemURL)
	if doc.Body() == nil {
		t.Fatal("Expected an empty document to have a body")
	}
	if doc.URL() != problemURL {
		t.Errorf("Expected URL %q, got %q", problemURL, doc.URL())
	}
}

func TestElementByIDAndText(t *testing.T) {
	doc := mustParse(t, `<div id="__next"><p id="status"> Accepted <span>12 ms</span></p></div>`)

	status := doc.ElementByID("status")
	if status == nil {
		t.Fatal("Expected to find #status")
	}
	if got := doc.Text(status); got != " Accepted 12 ms" {
		t.Errorf("Expected text %q, got %q", " Accepted 12 ms", got)
	}
	if doc.ElementByID("missing") != nil {
		t.Error("Expected nil for a missing id")
	}
}

func TestQuerySelector(t *testing.T) {
	doc := mustParse(t, `
		<div data-cy="lang-select"><span class="ant-select-selection-item">Python3</span></div>
		<div class="language-picker"><button class="select-btn">Go</button></div>`)

	tests := []struct {
		selector string
		expected string
	}{
		{"[data-cy=lang-select] .ant-select-selection-item", "Python3"},
		{"[class*='language'] [class*='select']", "Go"},
		{".does-not-exist", ""},
		{"[[invalid", ""},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			got := doc.Text(doc.QuerySelector(tt.selector))
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestQuerySelectorIn_ExcludesRoot(t *testing.T) {
	doc := mustParse(t, `<div id="outer"><div id="inner"></div></div>`)
	outer := doc.ElementByID("outer")

	found := doc.QuerySelectorAll(outer, "div")
	if len(found) != 1 {
		t.Fatalf("Expected only the inner div, got %d nodes", len(found))
	}
	if id, _ := doc.Attr(found[0], "id"); id != "inner" {
		t.Errorf("Expected #inner, got #%s", id)
	}
	if !doc.Matches(outer, "div#outer") {
		t.Error("Expected Matches to test the node itself")
	}
}

func TestAttributes(t *testing.T) {
	doc := New(problemURL)
	btn := doc.CreateElement("button")

	doc.SetAttr(btn, "id", "a")
	doc.SetAttr(btn, "id", "b")
	if v, ok := doc.Attr(btn, "id"); !ok || v != "b" {
		t.Errorf("Expected id=b, got %q (ok=%v)", v, ok)
	}
	if len(btn.Attr) != 1 {
		t.Errorf("Expected SetAttr to replace, got %d attributes", len(btn.Attr))
	}

	doc.RemoveAttr(btn, "id")
	if _, ok := doc.Attr(btn, "id"); ok {
		t.Error("Expected attribute to be removed")
	}
}

func TestAppendChild_NotifiesSubtreeObservers(t *testing.T) {
	doc := mustParse(t, `<div id="app"><section id="results"></section></div><aside id="other"></aside>`)
	results := doc.ElementByID("results")
	other := doc.ElementByID("other")

	var bodyBatches, resultsBatches [][]*html.Node
	doc.Observe(doc.Body(), func(added []*html.Node) { bodyBatches = append(bodyBatches, added) })
	doc.Observe(results, func(added []*html.Node) { resultsBatches = append(resultsBatches, added) })

	doc.AppendChild(results, doc.CreateElement("span"))
	doc.AppendChild(other, doc.CreateElement("span"))

	if len(bodyBatches) != 2 {
		t.Errorf("Expected body observer to see 2 batches, got %d", len(bodyBatches))
	}
	if len(resultsBatches) != 1 {
		t.Errorf("Expected results observer to see 1 batch, got %d", len(resultsBatches))
	}
}

func TestAppendChild_DetachedSubtreeIsSilent(t *testing.T) {
	doc := New(problemURL)
	calls := 0
	doc.Observe(doc.Body(), func([]*html.Node) { calls++ })

	card := doc.CreateElement("div")
	doc.AppendChild(card, doc.CreateElement("span"))
	if calls != 0 {
		t.Errorf("Expected no notification for a detached subtree, got %d", calls)
	}

	doc.AppendChild(doc.Body(), card)
	if calls != 1 {
		t.Errorf("Expected one notification on attach, got %d", calls)
	}
}

func TestObserver_MayMutateDuringDelivery(t *testing.T) {
	doc := New(problemURL)
	body := doc.Body()
	var seen []string

	doc.Observe(body, func(added []*html.Node) {
		for _, n := range added {
			seen = append(seen, n.Data)
			if n.Data == "div" {
				doc.AppendChild(body, doc.CreateElement("button"))
			}
		}
	})

	doc.AppendChild(body, doc.CreateElement("div"))

	if strings.Join(seen, ",") != "div,button" {
		t.Errorf("Expected nested delivery div,button, got %v", seen)
	}
}

func TestSubscription_Disconnect(t *testing.T) {
	doc := New(problemURL)
	calls := 0
	sub := doc.Observe(doc.Body(), func([]*html.Node) { calls++ })

	sub.Disconnect()
	sub.Disconnect()
	doc.AppendChild(doc.Body(), doc.CreateElement("p"))

	if calls != 0 {
		t.Errorf("Expected no delivery after Disconnect, got %d", calls)
	}
	if doc.Subscriptions() != 0 {
		t.Errorf("Expected 0 subscriptions, got %d", doc.Subscriptions())
	}
}

func TestRemoveAndContains(t *testing.T) {
	doc := mustParse(t, `<div id="card"><button id="close">x</button></div>`)
	card := doc.ElementByID("card")
	closeBtn := doc.ElementByID("close")
	clicked := false
	doc.AddEventListener(closeBtn, "click", func() { clicked = true })

	doc.Remove(card)

	if doc.Contains(card) {
		t.Error("Expected card to be detached")
	}
	if doc.ElementByID("card") != nil {
		t.Error("Expected removed element not to be found by id")
	}
	if doc.Click(closeBtn) || clicked {
		t.Error("Expected listeners of removed nodes to be dropped")
	}
}

func TestClick_DisabledIsIgnored(t *testing.T) {
	doc := New(problemURL)
	btn := doc.CreateElement("button")
	doc.AppendChild(doc.Body(), btn)
	clicks := 0
	doc.AddEventListener(btn, "click", func() { clicks++ })

	if !doc.Click(btn) {
		t.Error("Expected enabled click to dispatch")
	}
	doc.SetAttr(btn, "disabled", "")
	if doc.Click(btn) {
		t.Error("Expected disabled click to be swallowed")
	}
	if clicks != 1 {
		t.Errorf("Expected 1 click, got %d", clicks)
	}
}

func TestSetText(t *testing.T) {
	doc := mustParse(t, `<p id="p"><b>old</b> text</p>`)
	p := doc.ElementByID("p")

	doc.SetText(p, "new")
	if got := doc.Text(p); got != "new" {
		t.Errorf("Expected %q, got %q", "new", got)
	}
	if !strings.Contains(doc.OuterHTML(p), ">new</p>") {
		t.Errorf("Unexpected markup %q", doc.OuterHTML(p))
	}
}

func TestEditorModels(t *testing.T) {
	doc := New(problemURL)
	if _, ok := doc.EditorModels(); ok {
		t.Error("Expected no editor on a fresh page")
	}

	doc.InstallEditor(&Model{Text: "print(1)", Language: "python"})
	models, ok := doc.EditorModels()
	if !ok || len(models) != 1 {
		t.Fatalf("Expected one model, got %d (ok=%v)", len(models), ok)
	}
	if models[0].Value() != "print(1)" {
		t.Errorf("Unexpected model value %q", models[0].Value())
	}
	if lr, ok := models[0].(LanguageReporter); !ok || lr.LanguageID() != "python" {
		t.Error("Expected model to report its language")
	}

	doc.RemoveEditor()
	if _, ok := doc.EditorModels(); ok {
		t.Error("Expected editor to be removed")
	}
}

func TestConcurrentAccess(t *testing.T) {
	doc := New(problemURL)
	body := doc.Body()
	doc.Observe(body, func([]*html.Node) {})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				el := doc.CreateElement("span")
				doc.AppendChild(body, el)
				doc.SetAttr(el, "data-n", "x")
				_ = doc.Text(body)
				_ = doc.QuerySelector("span")
			}
		}()
	}
	wg.Wait()

	if n := len(doc.QuerySelectorAll(body, "span")); n != 400 {
		t.Errorf("Expected 400 spans, got %d", n)
	}
}
