package canvas

import (
	"math"
	"time"
)

// maxPointers is the number of tracked pointers: 0 is the mouse, 1-9 touches.
const maxPointers = 10

// PointerSample is one normalized pointer reading delivered by the host.
// The canvas never reads platform input directly.
type PointerSample struct {
	PointerID int
	ViewportX float64
	ViewportY float64
	Buttons   Buttons
	Modifiers KeyModifiers
	// DeltaX and DeltaY are wheel or trackpad scroll deltas, zero for plain
	// pointer samples.
	DeltaX float64
	DeltaY float64
}

// --- Per-pointer state ---

type pointerState struct {
	down      bool
	button    MouseButton // button captured at press time
	pressTime time.Time
	pressVX   float64
	pressVY   float64
	startX    float64 // canvas press position
	startY    float64
	lastX     float64
	lastY     float64
	lastVX    float64
	lastVY    float64
	hitNode   *Node
	hoverNode *Node // last node the pointer was hovering over (for enter/leave)
	dragging  bool
}

type inputState struct {
	pointers [maxPointers]pointerState
	captured [maxPointers]*Node
}

// forget drops every reference to n so a removed node receives no further
// events.
func (in *inputState) forget(n *Node) {
	for i := range in.pointers {
		ps := &in.pointers[i]
		if ps.hitNode == n {
			ps.hitNode = nil
		}
		if ps.hoverNode == n {
			ps.hoverNode = nil
		}
		if in.captured[i] == n {
			in.captured[i] = nil
		}
	}
}

// CapturePointer routes all events for pointerID to node until the button is
// released or ReleasePointer is called.
func (s *Scene) CapturePointer(pointerID int, node *Node) {
	if pointerID >= 0 && pointerID < maxPointers {
		s.input.captured[pointerID] = node
	}
}

// ReleasePointer stops routing events for pointerID to a captured node.
func (s *Scene) ReleasePointer(pointerID int) {
	if pointerID >= 0 && pointerID < maxPointers {
		s.input.captured[pointerID] = nil
	}
}

// PointerCapture returns the node capturing pointerID, or nil.
func (s *Scene) PointerCapture(pointerID int) *Node {
	if pointerID >= 0 && pointerID < maxPointers {
		return s.input.captured[pointerID]
	}
	return nil
}

// Hovered returns the node under pointerID as of its last sample.
func (s *Scene) Hovered(pointerID int) *Node {
	if pointerID >= 0 && pointerID < maxPointers {
		return s.input.pointers[pointerID].hoverNode
	}
	return nil
}

// Dragging reports whether pointerID is in a drag gesture.
func (s *Scene) Dragging(pointerID int) bool {
	if pointerID >= 0 && pointerID < maxPointers {
		return s.input.pointers[pointerID].dragging
	}
	return false
}

// primaryButton returns the lowest pressed button.
func primaryButton(b Buttons) MouseButton {
	for i := MouseButtonLeft; i <= MouseButtonMiddle; i++ {
		if b.Has(i) {
			return i
		}
	}
	return MouseButtonLeft
}

// --- Input processing ---

// HandlePointer runs the pointer state machine for one sample. Hit testing
// uses the spatial index of the last Update.
//
// A press followed by movement only becomes a drag once the pointer has
// moved more than DragDistance viewport pixels from the press position AND
// the button has been held for at least DragDelay. A release without a drag
// over the pressed shape is a click.
func (s *Scene) HandlePointer(p PointerSample, now time.Time) {
	id := p.PointerID
	if id < 0 || id >= maxPointers {
		return
	}
	ps := &s.input.pointers[id]
	wx, wy := s.camera.ViewportToCanvas(p.ViewportX, p.ViewportY)

	target := s.input.captured[id]
	if target == nil {
		target = s.PickTop(wx, wy)
	}

	base := Event{
		PointerID: id,
		ViewportX: p.ViewportX,
		ViewportY: p.ViewportY,
		CanvasX:   wx,
		CanvasY:   wy,
		Buttons:   p.Buttons,
		Modifiers: p.Modifiers,
		Button:    ps.button,
		Time:      now,
	}
	fire := func(t EventType, target, related *Node) *Event {
		e := base
		e.Type = t
		e.Target = target
		e.RelatedTarget = related
		s.Dispatch(&e)
		return &e
	}

	// Fire hover transitions when the hovered node changes.
	if target != ps.hoverNode {
		prev := ps.hoverNode
		ps.hoverNode = target
		if prev != nil {
			fire(EventPointerOut, prev, target)
			fire(EventPointerLeave, prev, target)
		}
		if target != nil {
			fire(EventPointerOver, target, prev)
			fire(EventPointerEnter, target, prev)
		}
	}

	moved := p.ViewportX != ps.lastVX || p.ViewportY != ps.lastVY
	pressed := p.Buttons != 0
	switch {
	case pressed && !ps.down:
		ps.down = true
		ps.button = primaryButton(p.Buttons)
		ps.pressTime = now
		ps.pressVX, ps.pressVY = p.ViewportX, p.ViewportY
		ps.startX, ps.startY = wx, wy
		ps.lastX, ps.lastY = wx, wy
		ps.hitNode = target
		ps.dragging = false
		base.Button = ps.button
		fire(EventPointerDown, target, nil)

	case !pressed && ps.down:
		fire(EventPointerUp, target, nil)
		if ps.dragging {
			e := base
			e.Type = EventDragEnd
			e.Target = ps.hitNode
			e.StartX, e.StartY = ps.startX, ps.startY
			e.DeltaX, e.DeltaY = wx-ps.lastX, wy-ps.lastY
			s.Dispatch(&e)
		} else if ps.hitNode != nil && ps.hitNode == target {
			fire(EventClick, target, nil)
		}
		// Auto-release capture.
		s.input.captured[id] = nil
		ps.down = false
		ps.hitNode = nil
		ps.dragging = false
		ps.lastX, ps.lastY = wx, wy

	case pressed && ps.down:
		if moved {
			fire(EventPointerMove, target, nil)
			if !ps.dragging {
				dist := math.Hypot(p.ViewportX-ps.pressVX, p.ViewportY-ps.pressVY)
				if dist > s.cfg.DragDistance && now.Sub(ps.pressTime) >= s.cfg.DragDelay {
					ps.dragging = true
					e := base
					e.Type = EventDragStart
					e.Target = ps.hitNode
					e.StartX, e.StartY = ps.startX, ps.startY
					e.DeltaX, e.DeltaY = wx-ps.startX, wy-ps.startY
					s.Dispatch(&e)
					ps.lastX, ps.lastY = ps.startX, ps.startY
				}
			}
			if ps.dragging {
				e := base
				e.Type = EventDrag
				e.Target = ps.hitNode
				e.StartX, e.StartY = ps.startX, ps.startY
				e.DeltaX, e.DeltaY = wx-ps.lastX, wy-ps.lastY
				s.Dispatch(&e)
			}
			ps.lastX, ps.lastY = wx, wy
		}

	default:
		if moved {
			fire(EventPointerMove, target, nil)
			ps.lastX, ps.lastY = wx, wy
		}
	}
	ps.lastVX, ps.lastVY = p.ViewportX, p.ViewportY

	if p.DeltaX != 0 || p.DeltaY != 0 {
		e := base
		e.Type = EventWheel
		e.Target = target
		e.WheelX, e.WheelY = p.DeltaX, p.DeltaY
		s.Dispatch(&e)
		if !e.DefaultPrevented() {
			s.wheelDefault(p)
		}
	}
}

// wheelDefault is the built-in wheel reaction: ctrl+wheel (and trackpad
// pinch, which browsers report as ctrl+wheel) zooms around the cursor, a
// plain wheel pans.
func (s *Scene) wheelDefault(p PointerSample) {
	if p.Modifiers&ModCtrl != 0 {
		s.camera.WheelZoom(p.DeltaY, s.cfg.WheelZoomSpeed, p.ViewportX, p.ViewportY)
	} else {
		s.camera.PanBy(-p.DeltaX, -p.DeltaY)
	}
	s.RequestFrame()
}
