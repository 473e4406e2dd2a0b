package canvas

import (
	"errors"
	"math"

	"seehuhn.de/go/geom/vec"
)

// Vec2 is a 2D vector used for positions, offsets, sizes and directions
// throughout the API.
type Vec2 = vec.Vec2

// Color is a straight-alpha RGBA color, each channel in [0, 1]. Alpha is
// multiplied in only when instance data is packed for the GPU.
//
// The zero Color is the "none" paint: a fill or stroke set to ColorNone is
// not painted and does not take part in painted-only hit testing.
type Color struct {
	R, G, B, A float64
}

// ColorNone disables a fill or stroke.
var ColorNone = Color{}

// Common colors.
var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
)

// IsNone reports whether c is the none paint.
func (c Color) IsNone() bool { return c == ColorNone }

// Premultiplied returns the color with RGB multiplied by alpha*opacity.
func (c Color) Premultiplied(opacity float64) [4]float32 {
	a := c.A * opacity
	return [4]float32{float32(c.R * a), float32(c.G * a), float32(c.B * a), float32(a)}
}

// Rect is an axis-aligned rectangle in y-down coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) is inside r or on its edge.
func (r Rect) Contains(x, y float64) bool {
	return r.X <= x && x <= r.X+r.Width && r.Y <= y && y <= r.Y+r.Height
}

// AABB returns the rectangle as an AABB.
func (r Rect) AABB() AABB {
	return AABB{MinX: r.X, MinY: r.Y, MaxX: r.X + r.Width, MaxY: r.Y + r.Height}
}

// --- Errors ---

// Errors returned by scene graph, serialization and rendering operations.
var (
	ErrSelfParent       = errors.New("canvas: node cannot be its own parent")
	ErrCycle            = errors.New("canvas: adding child would create a cycle")
	ErrNotChild         = errors.New("canvas: node is not a child of this parent")
	ErrNilNode          = errors.New("canvas: nil node")
	ErrIndexOutOfRange  = errors.New("canvas: child index out of range")
	ErrDisposed         = errors.New("canvas: node is disposed")
	ErrInvalidShapeKind = errors.New("canvas: invalid shape kind")
	ErrCorruptRecord    = errors.New("canvas: corrupt serialized record")
)

// --- Enums ---

// ShapeKind distinguishes the geometry carried by a Node.
type ShapeKind uint8

const (
	KindGroup    ShapeKind = iota // no geometry; transforms and orders children
	KindCircle                    // center + radius
	KindEllipse                   // center + two radii
	KindRect                      // origin + size + corner radius
	KindPath                      // moveTo/lineTo/quad/cubic/close commands
	KindPolyline                  // ordered point list
	KindText                      // laid-out glyph runs
)

var kindNames = [...]string{"g", "circle", "ellipse", "rect", "path", "polyline", "text"}

// String returns the serialized type name of the kind.
func (k ShapeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseShapeKind maps a serialized type name to a ShapeKind.
func ParseShapeKind(s string) (ShapeKind, error) {
	for i, name := range kindNames {
		if name == s {
			return ShapeKind(i), nil
		}
	}
	if s == "group" {
		return KindGroup, nil
	}
	return 0, ErrInvalidShapeKind
}

// StrokeAlignment places the stroke relative to the geometric outline.
type StrokeAlignment uint8

const (
	StrokeCenter StrokeAlignment = iota // straddles the outline
	StrokeInner                         // entirely inside the outline
	StrokeOuter                         // entirely outside the outline
)

// outerExtent returns how far the stroke reaches beyond the outline.
func (a StrokeAlignment) outerExtent(width float64) float64 {
	switch a {
	case StrokeInner:
		return 0
	case StrokeOuter:
		return width
	default:
		return width / 2
	}
}

// LineCap is the shape at the open ends of a stroked path or polyline.
type LineCap uint8

const (
	CapButt   LineCap = iota // flat, ends at the endpoint
	CapRound                 // half circle beyond the endpoint
	CapSquare                // half-width square beyond the endpoint
)

// LineJoin is the shape where two stroked segments meet.
type LineJoin uint8

const (
	JoinMiter LineJoin = iota // extended outer edges, falls back to bevel past the limit
	JoinBevel                 // straight cut between segment corners
	JoinRound                 // circular arc
)

// PointerEvents controls which parts of a shape can be the target of pointer
// events. Semantics follow the SVG property of the same name.
type PointerEvents uint8

const (
	PointerEventsAuto           PointerEvents = iota // same as VisiblePainted
	PointerEventsVisiblePainted                      // visible, painted fill or painted stroke
	PointerEventsVisibleFill                         // visible, fill area regardless of paint
	PointerEventsVisibleStroke                       // visible, stroke area regardless of paint
	PointerEventsVisible                             // visible, fill or stroke area regardless of paint
	PointerEventsPainted                             // painted fill or painted stroke
	PointerEventsFill                                // fill area regardless of paint
	PointerEventsStroke                              // stroke area regardless of paint
	PointerEventsAll                                 // fill or stroke area regardless of paint
	PointerEventsNone                                // never a target
)

var pointerEventsNames = [...]string{
	"auto", "visiblePainted", "visibleFill", "visibleStroke", "visible",
	"painted", "fill", "stroke", "all", "none",
}

// String returns the attribute value for p.
func (p PointerEvents) String() string {
	if int(p) < len(pointerEventsNames) {
		return pointerEventsNames[p]
	}
	return "auto"
}

// ParsePointerEvents parses an attribute value. Unknown values map to auto.
func ParsePointerEvents(s string) PointerEvents {
	for i, name := range pointerEventsNames {
		if name == s {
			return PointerEvents(i)
		}
	}
	return PointerEventsAuto
}

// requiresVisible reports whether the value only applies to visible shapes.
func (p PointerEvents) requiresVisible() bool {
	return p <= PointerEventsVisible
}

// testsFill reports whether the fill area participates, given the fill paint.
func (p PointerEvents) testsFill(fill Color) bool {
	switch p {
	case PointerEventsAuto, PointerEventsVisiblePainted, PointerEventsPainted:
		return !fill.IsNone()
	case PointerEventsVisibleFill, PointerEventsVisible, PointerEventsFill, PointerEventsAll:
		return true
	}
	return false
}

// testsStroke reports whether the stroke area participates.
func (p PointerEvents) testsStroke(stroke Color, width float64) bool {
	if width <= 0 {
		return false
	}
	switch p {
	case PointerEventsAuto, PointerEventsVisiblePainted, PointerEventsPainted:
		return !stroke.IsNone()
	case PointerEventsVisibleStroke, PointerEventsVisible, PointerEventsStroke, PointerEventsAll:
		return true
	}
	return false
}

// EventType names a pointer event.
type EventType uint8

const (
	EventPointerDown  EventType = iota // a pointer button was pressed
	EventPointerUp                     // a pointer button was released
	EventPointerMove                   // the pointer moved
	EventClick                         // press then release over the same target without dragging
	EventDragStart                     // movement exceeded the drag distance after the drag delay
	EventDrag                          // pointer moved while dragging
	EventDragEnd                       // button released after dragging
	EventPointerEnter                  // pointer entered a shape
	EventPointerLeave                  // pointer left a shape
	EventPointerOver                   // pointer moved onto a shape; bubbles
	EventPointerOut                    // pointer moved off a shape; bubbles
	EventWheel                         // wheel or trackpad scroll
	eventTypeCount
)

var eventTypeNames = [...]string{
	"pointerdown", "pointerup", "pointermove", "click", "dragstart", "drag",
	"dragend", "pointerenter", "pointerleave", "pointerover", "pointerout", "wheel",
}

// String returns the DOM-style event name.
func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return "unknown"
}

// bubbles reports whether the event type propagates to ancestors.
// Enter and leave are delivered to their target only.
func (t EventType) bubbles() bool {
	return t != EventPointerEnter && t != EventPointerLeave
}

// MouseButton is a bit position in PointerSample.Buttons.
type MouseButton uint8

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// Buttons is a bitmask of pressed mouse buttons, bit i set for MouseButton i.
type Buttons uint8

// Has reports whether b is pressed.
func (bs Buttons) Has(b MouseButton) bool { return bs&(1<<b) != 0 }

// KeyModifiers is the set of modifier keys held during a sample.
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta // Command on macOS
)

// TextAlign controls horizontal text alignment.
type TextAlign uint8

const (
	TextAlignLeft TextAlign = iota
	TextAlignCenter
	TextAlignRight
)

// nearZero reports whether v is within 1e-12 of zero.
func nearZero(v float64) bool {
	return math.Abs(v) < 1e-12
}
