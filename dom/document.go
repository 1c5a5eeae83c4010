// Package dom models the host page the companion runs in: an HTML element
// tree with id and selector lookups, click listeners, subtree mutation
// subscriptions and an optional code editor host.
//
// All access goes through *Document so that the watcher, the surface and the
// orchestrator can touch the page from different goroutines. Nodes are plain
// *html.Node values; callers must not mutate them directly.
package dom

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a live page: a tree plus its subscriptions and listeners.
type Document struct {
	mu        sync.RWMutex
	url       string
	root      *html.Node
	subs      map[int]*Subscription
	nextSubID int
	listeners map[*html.Node]map[string][]func()
	editor    *editorHost
}

// New returns an empty page (html, head, body) at url.
func New(url string) *Document {
	doc, _ := Parse(url, strings.NewReader(""))
	return doc
}

// Parse builds a Document from an HTML snapshot.
func Parse(url string, r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{
		url:       url,
		root:      root,
		subs:      make(map[int]*Subscription),
		listeners: make(map[*html.Node]map[string][]func()),
	}, nil
}

// ParseString is Parse over a string.
func ParseString(url, markup string) (*Document, error) {
	return Parse(url, strings.NewReader(markup))
}

// URL returns the address the page was loaded from.
func (d *Document) URL() string {
	return d.url
}

// Body returns the <body> element, or nil.
func (d *Document) Body() *html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
}

// ElementByID returns the first connected element whose id is id, or nil.
func (d *Document) ElementByID(id string) *html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return findFirst(d.root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		v, ok := getAttr(n, "id")
		return ok && v == id
	})
}

// CreateElement returns a detached element.
func (d *Document) CreateElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// Text returns the concatenated text of n and its descendants.
func (d *Document) Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	var sb strings.Builder
	collectText(n, &sb)
	return sb.String()
}

// SetText replaces the children of n with a single text node.
func (d *Document) SetText(n *html.Node, text string) {
	d.mu.Lock()
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		d.dropListenersLocked(c)
		c = next
	}
	textNode := &html.Node{Type: html.TextNode, Data: text}
	n.AppendChild(textNode)
	batch := d.matchingSubsLocked(n)
	d.mu.Unlock()

	deliver(batch, []*html.Node{textNode})
}

// Attr returns the value of attribute key on n.
func (d *Document) Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return getAttr(n, key)
}

// SetAttr sets attribute key on n, replacing any previous value.
func (d *Document) SetAttr(n *html.Node, key, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

// RemoveAttr deletes attribute key from n.
func (d *Document) RemoveAttr(n *html.Node, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// Parent returns the parent element of n, or nil for detached nodes and the
// document root.
func (d *Document) Parent(n *html.Node) *html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if n.Parent == nil || n.Parent.Type != html.ElementNode {
		return nil
	}
	return n.Parent
}

// Contains reports whether n is attached to the page.
func (d *Document) Contains(n *html.Node) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return isConnected(d.root, n)
}

// AppendChild moves child under parent and notifies every subscription whose
// target is parent or one of its ancestors.
func (d *Document) AppendChild(parent, child *html.Node) {
	d.mu.Lock()
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	parent.AppendChild(child)
	batch := d.matchingSubsLocked(parent)
	d.mu.Unlock()

	deliver(batch, []*html.Node{child})
}

// Remove detaches n from the page and drops its listeners.
func (d *Document) Remove(n *html.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	d.dropListenersLocked(n)
}

// OuterHTML renders n as markup.
func (d *Document) OuterHTML(n *html.Node) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

func isConnected(root, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}
