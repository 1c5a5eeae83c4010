package surface

import (
	"complexity-analyzer-go/logcolors"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// EnsureTrigger places the trigger next to anchor unless one is already on
// the page. It reports whether a new trigger was created. onClick runs on
// every enabled click.
//
// The insertion notifies page observers, so it happens without holding the
// trigger lock; observers may call EnsureTrigger again from their callback.
func (s *Surface) EnsureTrigger(anchor *html.Node, onClick func()) bool {
	s.triggerMu.Lock()
	if s.attaching || s.doc.ElementByID(TriggerID) != nil {
		s.triggerMu.Unlock()
		return false
	}
	s.attaching = true
	s.state = TriggerIdle
	s.triggerMu.Unlock()

	doc := s.doc
	button := doc.CreateElement("button")
	doc.SetAttr(button, "id", TriggerID)
	doc.SetAttr(button, "type", "button")
	doc.AddEventListener(button, "click", onClick)
	s.paint(button, TriggerIdle)

	parent := doc.Parent(anchor)
	if parent == nil {
		parent = anchor
	}
	doc.AppendChild(parent, button)

	s.triggerMu.Lock()
	s.attaching = false
	s.triggerMu.Unlock()

	log.Infof("%s Trigger attached", logcolors.LogSurface)
	return true
}

// Trigger returns the trigger element, or nil.
func (s *Surface) Trigger() *html.Node {
	return s.doc.ElementByID(TriggerID)
}

// SetTriggerState switches the trigger label and disabled flag. Without a
// trigger on the page only the recorded state changes.
func (s *Surface) SetTriggerState(state TriggerState) {
	s.triggerMu.Lock()
	s.state = state
	s.triggerMu.Unlock()

	if button := s.doc.ElementByID(TriggerID); button != nil {
		s.paint(button, state)
	}
}

// TriggerState returns the last state applied to the trigger.
func (s *Surface) TriggerState() TriggerState {
	s.triggerMu.Lock()
	defer s.triggerMu.Unlock()
	return s.state
}

func (s *Surface) paint(button *html.Node, state TriggerState) {
	if state == TriggerLoading {
		s.doc.SetAttr(button, "disabled", "")
		s.doc.SetAttr(button, "style", triggerBaseStyle+";cursor:progress;opacity:0.7")
		s.doc.SetText(button, LoadingLabel)
		return
	}
	s.doc.RemoveAttr(button, "disabled")
	s.doc.SetAttr(button, "style", triggerBaseStyle+";cursor:pointer")
	s.doc.SetText(button, IdleLabel)
}
