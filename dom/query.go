package dom

import (
	"sync"

	"github.com/andybalholm/cascadia"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

var compiled sync.Map // selector string -> cascadia.Selector

func compile(selector string) (cascadia.Selector, bool) {
	if sel, ok := compiled.Load(selector); ok {
		return sel.(cascadia.Selector), true
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		log.Warnf("invalid selector %q: %v", selector, err)
		return nil, false
	}
	compiled.Store(selector, sel)
	return sel, true
}

// QuerySelector returns the first element in the page matching selector.
func (d *Document) QuerySelector(selector string) *html.Node {
	d.mu.RLock()
	root := d.root
	d.mu.RUnlock()
	return d.QuerySelectorIn(root, selector)
}

// QuerySelectorIn returns the first descendant of root, in document order,
// matching selector. root itself is not considered. An invalid selector
// matches nothing.
func (d *Document) QuerySelectorIn(root *html.Node, selector string) *html.Node {
	sel, ok := compile(selector)
	if !ok || root == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if m := sel.MatchFirst(c); m != nil {
			return m
		}
	}
	return nil
}

// QuerySelectorAll returns every descendant of root matching selector, in
// document order.
func (d *Document) QuerySelectorAll(root *html.Node, selector string) []*html.Node {
	sel, ok := compile(selector)
	if !ok || root == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, sel.MatchAll(c)...)
	}
	return out
}

// Matches reports whether n itself matches selector.
func (d *Document) Matches(n *html.Node, selector string) bool {
	sel, ok := compile(selector)
	if !ok || n == nil {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sel.Match(n)
}
