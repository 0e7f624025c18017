package runtime

import (
	"yaksok/interpreter-go/pkg/ast"
	"yaksok/interpreter-go/pkg/yaksokerr"
)

// Event names a control transfer that travels up the frame chain.
type Event string

const (
	EventBreak       Event = "break"
	EventReturnValue Event = "returnValue"
)

// Action is what a frame does when it intercepts an event.
type Action int

const (
	// SetBreakFlag clears the owning loop's running flag.
	SetBreakFlag Action = iota + 1
	// CaptureReturn stores the event's first argument in the owning call's slot.
	CaptureReturn
)

func (a Action) String() string {
	switch a {
	case SetBreakFlag:
		return "set-break-flag"
	case CaptureReturn:
		return "capture-return"
	default:
		return "unknown"
	}
}

// Handler pairs an action with the state it writes to. The state belongs to
// the construct that registered the handler.
type Handler struct {
	Action  Action
	Running *bool
	Slot    *ast.Value
}

func BreakHandler(running *bool) Handler {
	return Handler{Action: SetBreakFlag, Running: running}
}

func ReturnHandler(slot *ast.Value) Handler {
	return Handler{Action: CaptureReturn, Slot: slot}
}

func (h Handler) apply(args []ast.Value) {
	switch h.Action {
	case SetBreakFlag:
		*h.Running = false
	case CaptureReturn:
		if len(args) > 0 {
			*h.Slot = args[0]
		} else {
			*h.Slot = nil
		}
	}
}

// Frame is created for one execution of one node and dropped when it returns.
type Frame struct {
	parent   *Frame
	owner    ast.Node
	handlers map[Event]Handler
}

// NewFrame links a fresh frame for owner under parent. parent may be nil.
func NewFrame(owner ast.Node, parent *Frame) *Frame {
	return &Frame{parent: parent, owner: owner}
}

func (f *Frame) Parent() *Frame { return f.parent }

func (f *Frame) Owner() ast.Node { return f.owner }

// On registers a handler for event on this frame.
func (f *Frame) On(event Event, h Handler) {
	if f.handlers == nil {
		f.handlers = make(map[Event]Handler, 1)
	}
	f.handlers[event] = h
}

// Invoke delivers event to the nearest frame, starting at f, that handles it.
// It returns the frame that handled it.
func (f *Frame) Invoke(event Event, args ...ast.Value) (*Frame, error) {
	for fr := f; fr != nil; fr = fr.parent {
		if h, ok := fr.handlers[event]; ok {
			h.apply(args)
			return fr, nil
		}
	}
	return nil, yaksokerr.New(yaksokerr.EventNotFound, map[string]any{"name": string(event)})
}

// Depth counts frames from f to the root, inclusive.
func (f *Frame) Depth() int {
	n := 0
	for fr := f; fr != nil; fr = fr.parent {
		n++
	}
	return n
}
