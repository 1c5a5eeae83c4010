// Package watcher waits for the accepted-submission marker on a problem page
// and attaches the analyze trigger next to it.
package watcher

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"complexity-analyzer-go/dom"
	"complexity-analyzer-go/logcolors"
	"complexity-analyzer-go/surface"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// AcceptedText marks a successful submission.
const AcceptedText = "Accepted"

const candidateSelector = "span, div, p, strong"

// DefaultURLPattern matches problem pages.
var DefaultURLPattern = regexp.MustCompile(`^https://leetcode\.com/problems/`)

// Options tunes activation and the wait for the application root.
type Options struct {
	URLPattern *regexp.Regexp
	RootID     string
	Attempts   int
	Delay      time.Duration
}

// DefaultOptions returns the settings used on the live site.
func DefaultOptions() Options {
	return Options{
		URLPattern: DefaultURLPattern,
		RootID:     "__next",
		Attempts:   20,
		Delay:      250 * time.Millisecond,
	}
}

// Watcher observes one page.
type Watcher struct {
	doc       *dom.Document
	surface   *surface.Surface
	onTrigger func()
	opts      Options

	mu  sync.Mutex
	sub *dom.Subscription
}

// New returns a Watcher that attaches a trigger running onTrigger.
func New(doc *dom.Document, surf *surface.Surface, onTrigger func(), opts Options) *Watcher {
	if opts.URLPattern == nil {
		opts.URLPattern = DefaultURLPattern
	}
	return &Watcher{doc: doc, surface: surf, onTrigger: onTrigger, opts: opts}
}

// Start activates the watcher. It returns false without doing anything on
// pages outside the URL pattern, and an error only when ctx ends while
// waiting for the application root.
func (w *Watcher) Start(ctx context.Context) (bool, error) {
	if !w.opts.URLPattern.MatchString(w.doc.URL()) {
		log.Debugf("%s %s is not a problem page, staying inactive", logcolors.LogWatcher, w.doc.URL())
		return false, nil
	}

	if w.opts.RootID != "" {
		root := WaitForElement(ctx, func() *html.Node {
			return w.doc.ElementByID(w.opts.RootID)
		}, w.opts.Attempts, w.opts.Delay)
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if root == nil {
			log.Warnf("%s #%s not found after %d attempts, observing anyway", logcolors.LogWatcher, w.opts.RootID, w.opts.Attempts)
		}
	}

	body := w.doc.Body()
	if body == nil {
		log.Warnf("%s Page has no body", logcolors.LogWatcher)
		return false, nil
	}

	if node := FindAcceptedNode(w.doc, body); node != nil {
		w.attach(node)
	}

	sub := w.doc.Observe(body, w.handleAdded)
	w.mu.Lock()
	if w.sub != nil {
		w.sub.Disconnect()
	}
	w.sub = sub
	w.mu.Unlock()

	log.Infof("%s Watching %s", logcolors.LogWatcher, w.doc.URL())
	return true, nil
}

// Stop disconnects the page subscription.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sub != nil {
		w.sub.Disconnect()
		w.sub = nil
	}
}

func (w *Watcher) handleAdded(added []*html.Node) {
	for _, n := range added {
		if n.Type != html.ElementNode {
			continue
		}
		if node := FindAcceptedNode(w.doc, n); node != nil {
			w.attach(node)
			return
		}
	}
}

func (w *Watcher) attach(anchor *html.Node) {
	if w.surface.EnsureTrigger(anchor, w.onTrigger) {
		log.Infof("%s Accepted marker found, trigger attached", logcolors.LogWatcher)
	}
}

// FindAcceptedNode scans root and its subtree. The first candidate whose
// trimmed text starts with AcceptedText wins; otherwise the first whose text
// contains it. The analysis panel is never a candidate.
func FindAcceptedNode(doc *dom.Document, root *html.Node) *html.Node {
	if insidePanel(doc, root) {
		return nil
	}
	var candidates []*html.Node
	if doc.Matches(root, candidateSelector) {
		candidates = append(candidates, root)
	}
	for _, c := range doc.QuerySelectorAll(root, candidateSelector) {
		if !insidePanel(doc, c) {
			candidates = append(candidates, c)
		}
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = doc.Text(c)
		if strings.HasPrefix(strings.TrimSpace(texts[i]), AcceptedText) {
			return c
		}
	}
	for i, c := range candidates {
		if strings.Contains(texts[i], AcceptedText) {
			return c
		}
	}
	return nil
}

func insidePanel(doc *dom.Document, n *html.Node) bool {
	for ; n != nil; n = doc.Parent(n) {
		if id, ok := doc.Attr(n, "id"); ok && id == surface.PanelID {
			return true
		}
	}
	return false
}

// WaitForElement polls predicate up to attempts+1 times, delay apart, and
// returns the first non-nil result. It returns nil when the budget runs out
// or ctx ends.
func WaitForElement(ctx context.Context, predicate func() *html.Node, attempts int, delay time.Duration) *html.Node {
	for tries := 0; ; tries++ {
		if el := predicate(); el != nil {
			return el
		}
		if tries >= attempts {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}
