package schema

import (
	"sort"

	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/model"
)

// ViewHost is what an interactive node view sees of its editor.
type ViewHost interface {
	// Run applies a command to the editor and dispatches the result.
	Run(cmd commands.Command) bool
	// Events is the document-level event target for global listeners.
	Events() *EventTarget
}

// View is an interactive rendering of one node.
type View interface {
	// Update hands the view its node after a change. Returning false makes
	// the editor recreate the view.
	Update(node *model.Node) bool
	Destroy()
	// State is the externally visible state of the view.
	State() map[string]any
}

// InputView is a view with text inputs addressed by test ID.
type InputView interface {
	Input(target, value string) bool
	Key(target, key string) bool
}

// PointerView is a view with pointer-driven controls addressed by test ID.
type PointerView interface {
	PointerDown(target string, x, y float64) bool
}

// StyledView contributes inline style to its node's rendered element.
type StyledView interface {
	Style() string
}

// PointerEvent is a pointer event delivered to document-level listeners.
type PointerEvent struct {
	Type string
	X, Y float64
}

// Listener receives events from an EventTarget.
type Listener func(ev PointerEvent)

// EventTarget keeps document-level event listeners.
type EventTarget struct {
	nextID    int
	listeners map[string]map[int]Listener
}

// NewEventTarget creates an empty event target.
func NewEventTarget() *EventTarget {
	return &EventTarget{listeners: make(map[string]map[int]Listener)}
}

// AddEventListener registers fn for events of type typ and returns the
// handle that removes it.
func (t *EventTarget) AddEventListener(typ string, fn Listener) int {
	t.nextID++
	if t.listeners[typ] == nil {
		t.listeners[typ] = make(map[int]Listener)
	}
	t.listeners[typ][t.nextID] = fn
	return t.nextID
}

// RemoveEventListener unregisters a listener. Unknown handles are ignored.
func (t *EventTarget) RemoveEventListener(typ string, id int) {
	delete(t.listeners[typ], id)
}

// ListenerCount returns how many listeners are registered for typ.
func (t *EventTarget) ListenerCount(typ string) int {
	return len(t.listeners[typ])
}

// Dispatch delivers ev to the listeners registered for its type, in
// registration order.
func (t *EventTarget) Dispatch(ev PointerEvent) {
	ls := t.listeners[ev.Type]
	ids := make([]int, 0, len(ls))
	for id := range ls {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := ls[id]; ok {
			fn(ev)
		}
	}
}
