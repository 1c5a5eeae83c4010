package dom

import "golang.org/x/net/html"

// AddEventListener registers fn for event on n.
func (d *Document) AddEventListener(n *html.Node, event string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	byEvent, ok := d.listeners[n]
	if !ok {
		byEvent = make(map[string][]func())
		d.listeners[n] = byEvent
	}
	byEvent[event] = append(byEvent[event], fn)
}

// Dispatch runs the listeners for event on n in registration order and
// reports whether any ran. Listeners run on the calling goroutine.
func (d *Document) Dispatch(n *html.Node, event string) bool {
	d.mu.RLock()
	fns := append([]func(){}, d.listeners[n][event]...)
	d.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns) > 0
}

// Click dispatches a click on n. Like a browser, a disabled control swallows
// the click.
func (d *Document) Click(n *html.Node) bool {
	if _, disabled := d.Attr(n, "disabled"); disabled {
		return false
	}
	return d.Dispatch(n, "click")
}

// dropListenersLocked forgets listeners registered on n and its subtree.
// Callers hold d.mu.
func (d *Document) dropListenersLocked(n *html.Node) {
	delete(d.listeners, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.dropListenersLocked(c)
	}
}
