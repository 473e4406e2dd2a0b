package canvas

import "time"

// EventPhase is the propagation phase an event is being delivered in.
type EventPhase uint8

const (
	PhaseNone    EventPhase = iota
	PhaseCapture            // root toward the target's parent
	PhaseTarget             // at the target itself
	PhaseBubble             // target's parent back to the root
)

// Event is a pointer, drag or wheel event delivered to listeners. Listeners
// must not keep the pointer after returning.
type Event struct {
	Type EventType
	// Target is the shape the event is about; nil for events over empty
	// canvas, which only reach scene listeners.
	Target *Node
	// CurrentTarget is the node whose listener is running; nil for scene
	// listeners.
	CurrentTarget *Node
	// RelatedTarget is the node the pointer came from (over/enter) or moved
	// to (out/leave).
	RelatedTarget *Node
	Phase         EventPhase

	PointerID int
	ViewportX float64
	ViewportY float64
	// CanvasX and CanvasY are the pointer position in canvas coordinates.
	CanvasX float64
	CanvasY float64
	// LocalX and LocalY are relative to CurrentTarget (canvas coordinates
	// for scene listeners).
	LocalX float64
	LocalY float64

	Button    MouseButton
	Buttons   Buttons
	Modifiers KeyModifiers

	// Drag fields, in canvas units: the press position and the movement
	// since the previous drag event.
	StartX, StartY float64
	DeltaX, DeltaY float64

	// Wheel deltas as delivered by the host.
	WheelX, WheelY float64

	Time time.Time

	stopped          bool
	stoppedImmediate bool
	defaultPrevented bool
}

// StopPropagation stops delivery to further nodes after the current one.
func (e *Event) StopPropagation() { e.stopped = true }

// StopImmediatePropagation also skips the remaining listeners on the
// current node.
func (e *Event) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedImmediate = true
}

// PreventDefault cancels the scene's built-in reaction, such as wheel
// zooming the camera.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool { return e.stopped }

// EventHandler handles a dispatched event.
type EventHandler func(e *Event)

// ListenerOptions configures AddEventListener.
type ListenerOptions struct {
	// Capture runs the listener during the capture phase instead of the
	// bubble phase. Listeners on the target run in both cases.
	Capture bool
	// Once removes the listener after its first call.
	Once bool
}

// ListenerID identifies a registered listener for removal.
type ListenerID uint64

var listenerCounter ListenerID

type listener struct {
	id      ListenerID
	typ     EventType
	fn      EventHandler
	capture bool
	once    bool
}

func addListener(list []listener, t EventType, fn EventHandler, opts ListenerOptions) ([]listener, ListenerID) {
	listenerCounter++
	id := listenerCounter
	return append(list, listener{id: id, typ: t, fn: fn, capture: opts.Capture, once: opts.Once}), id
}

func removeListener(list []listener, id ListenerID) []listener {
	for i := range list {
		if list[i].id == id {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = listener{}
			return list[:len(list)-1]
		}
	}
	return list
}

// AddEventListener registers fn for events of type t on n.
func (n *Node) AddEventListener(t EventType, fn EventHandler, opts ListenerOptions) ListenerID {
	var id ListenerID
	n.listeners, id = addListener(n.listeners, t, fn, opts)
	return id
}

// On registers a bubble-phase listener.
func (n *Node) On(t EventType, fn EventHandler) ListenerID {
	return n.AddEventListener(t, fn, ListenerOptions{})
}

// RemoveEventListener unregisters a listener. Unknown IDs are ignored.
func (n *Node) RemoveEventListener(id ListenerID) {
	n.listeners = removeListener(n.listeners, id)
}

// invoke runs n's listeners for e's type in the current phase. The list is
// snapshotted so listeners may add or remove listeners.
func (n *Node) invoke(e *Event, s *Scene) {
	if len(n.listeners) == 0 {
		return
	}
	var buf [8]listener
	snapshot := append(buf[:0], n.listeners...)
	for _, l := range snapshot {
		if l.typ != e.Type {
			continue
		}
		switch e.Phase {
		case PhaseCapture:
			if !l.capture {
				continue
			}
		case PhaseBubble:
			if l.capture {
				continue
			}
		}
		if l.once {
			n.listeners = removeListener(n.listeners, l.id)
		}
		e.CurrentTarget = n
		e.LocalX, e.LocalY = n.WorldToLocal(e.CanvasX, e.CanvasY)
		s.call(l.fn, e)
		if e.stoppedImmediate {
			return
		}
	}
}

// AddEventListener registers a scene-level listener. Scene listeners see
// every event, including those over empty canvas, after node propagation.
func (s *Scene) AddEventListener(t EventType, fn EventHandler) ListenerID {
	var id ListenerID
	s.listeners, id = addListener(s.listeners, t, fn, ListenerOptions{})
	return id
}

// RemoveEventListener unregisters a scene-level listener.
func (s *Scene) RemoveEventListener(id ListenerID) {
	s.listeners = removeListener(s.listeners, id)
}

// call runs a listener, turning a panic into a reported error so one bad
// handler does not abort the frame.
func (s *Scene) call(fn EventHandler, e *Event) {
	defer func() {
		if r := recover(); r != nil {
			s.reportf(e.Target, "listener for %s panicked: %v", e.Type, r)
		}
	}()
	fn(e)
}

// Dispatch delivers e: capture listeners from the root down to the target's
// parent, then the target's own listeners, then bubble listeners back up
// (for bubbling types), then scene listeners. The propagation path is fixed
// before delivery starts.
func (s *Scene) Dispatch(e *Event) {
	if e.Time.IsZero() {
		e.Time = s.platform.Now()
	}
	if e.Target != nil && !e.Target.disposed {
		var buf [32]*Node
		path := buf[:0]
		for p := e.Target.parent; p != nil; p = p.parent {
			path = append(path, p)
		}

		e.Phase = PhaseCapture
		for i := len(path) - 1; i >= 0 && !e.stopped; i-- {
			path[i].invoke(e, s)
		}
		if !e.stopped {
			e.Phase = PhaseTarget
			e.Target.invoke(e, s)
		}
		if e.Type.bubbles() {
			e.Phase = PhaseBubble
			for i := 0; i < len(path) && !e.stopped; i++ {
				path[i].invoke(e, s)
			}
		}
	}
	if !e.stopped && len(s.listeners) > 0 {
		e.Phase = PhaseNone
		e.CurrentTarget = nil
		e.LocalX, e.LocalY = e.CanvasX, e.CanvasY
		var buf [8]listener
		for _, l := range append(buf[:0], s.listeners...) {
			if l.typ != e.Type {
				continue
			}
			s.call(l.fn, e)
			if e.stoppedImmediate {
				break
			}
		}
	}
	s.emitInteraction(e)
}

// --- Host ECS bridge ---

// InteractionEvent is the flat record sent to an EventSink.
type InteractionEvent struct {
	Type      EventType
	EntityID  uint32
	Handle    Handle
	CanvasX   float64
	CanvasY   float64
	LocalX    float64
	LocalY    float64
	Button    MouseButton
	Modifiers KeyModifiers
	// Drag fields (valid for EventDragStart, EventDrag, EventDragEnd)
	StartX float64
	StartY float64
	DeltaX float64
	DeltaY float64
	// Wheel fields (valid for EventWheel)
	WheelX float64
	WheelY float64
}

// EventSink receives events for targets that carry an EntityID, so a host
// entity-component world can react without registering node listeners.
type EventSink interface {
	EmitEvent(event InteractionEvent)
}

// SetEventSink sets the optional ECS bridge.
func (s *Scene) SetEventSink(sink EventSink) {
	s.sink = sink
}

func (s *Scene) emitInteraction(e *Event) {
	if s.sink == nil || e.Target == nil || e.Target.EntityID == 0 {
		return
	}
	lx, ly := e.Target.WorldToLocal(e.CanvasX, e.CanvasY)
	s.sink.EmitEvent(InteractionEvent{
		Type:      e.Type,
		EntityID:  e.Target.EntityID,
		Handle:    e.Target.handle,
		CanvasX:   e.CanvasX,
		CanvasY:   e.CanvasY,
		LocalX:    lx,
		LocalY:    ly,
		Button:    e.Button,
		Modifiers: e.Modifiers,
		StartX:    e.StartX,
		StartY:    e.StartY,
		DeltaX:    e.DeltaX,
		DeltaY:    e.DeltaY,
		WheelX:    e.WheelX,
		WheelY:    e.WheelY,
	})
}
