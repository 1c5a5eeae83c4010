package dom

import (
	"sort"

	"golang.org/x/net/html"
)

// MutationCallback receives the nodes added by one insertion.
type MutationCallback func(added []*html.Node)

// Subscription is a handle returned by Observe.
type Subscription struct {
	id     int
	doc    *Document
	target *html.Node
	fn     MutationCallback
}

// Observe subscribes fn to child additions anywhere under target. Each
// insertion is delivered at least once, synchronously, after the tree lock
// has been released, so fn may read and modify the document. Insertions into
// detached subtrees are not reported until that subtree is itself attached.
func (d *Document) Observe(target *html.Node, fn MutationCallback) *Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextSubID++
	sub := &Subscription{id: d.nextSubID, doc: d, target: target, fn: fn}
	d.subs[sub.id] = sub
	return sub
}

// Disconnect stops further deliveries. It is safe to call more than once.
func (s *Subscription) Disconnect() {
	if s == nil {
		return
	}
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	delete(s.doc.subs, s.id)
}

// Subscriptions returns the number of active subscriptions.
func (d *Document) Subscriptions() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

// matchingSubsLocked returns, in subscription order, the subscriptions whose
// target is parent or an ancestor of it. Callers hold d.mu.
func (d *Document) matchingSubsLocked(parent *html.Node) []*Subscription {
	if !isConnected(d.root, parent) {
		return nil
	}
	var matched []*Subscription
	for _, sub := range d.subs {
		for p := parent; p != nil; p = p.Parent {
			if p == sub.target {
				matched = append(matched, sub)
				break
			}
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].id < matched[j].id })
	return matched
}

func deliver(subs []*Subscription, added []*html.Node) {
	for _, sub := range subs {
		sub.fn(added)
	}
}
