package canvas

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// --- Rect.Contains ---

func TestRectContains(t *testing.T) {
	r := Rect{10, 20, 100, 50}
	tests := []struct {
		name   string
		x, y   float64
		expect bool
	}{
		{"inside", 50, 40, true},
		{"top-left corner", 10, 20, true},
		{"bottom-right corner", 110, 70, true},
		{"left edge", 10, 40, true},
		{"outside left", 9, 40, false},
		{"outside right", 111, 40, false},
		{"outside above", 50, 19, false},
		{"outside below", 50, 71, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Contains(tt.x, tt.y)
			if got != tt.expect {
				t.Errorf("Rect%v.Contains(%v, %v) = %v, want %v", r, tt.x, tt.y, got, tt.expect)
			}
		})
	}
}

// --- Color ---

func TestColorPremultiplied(t *testing.T) {
	c := Color{R: 1, G: 0.5, B: 0, A: 0.5}
	got := c.Premultiplied(0.5)
	want := [4]float32{0.25, 0.125, 0, 0.25}
	if got != want {
		t.Errorf("Premultiplied(0.5) = %v, want %v", got, want)
	}
}

func TestColorNoneIsZero(t *testing.T) {
	var c Color
	if !c.IsNone() {
		t.Error("zero Color should be none")
	}
	if ColorBlack.IsNone() {
		t.Error("ColorBlack should not be none")
	}
	// Fully transparent non-zero colors are still a paint.
	if (Color{R: 1}).IsNone() {
		t.Error("Color{R: 1} should not be none")
	}
}

// --- Enums ---

func TestShapeKindRoundTrip(t *testing.T) {
	for k := KindGroup; k <= KindText; k++ {
		got, err := ParseShapeKind(k.String())
		if err != nil {
			t.Fatalf("ParseShapeKind(%q) error: %v", k.String(), err)
		}
		if got != k {
			t.Errorf("ParseShapeKind(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if k, err := ParseShapeKind("group"); err != nil || k != KindGroup {
		t.Errorf("ParseShapeKind(group) = %v, %v", k, err)
	}
	if _, err := ParseShapeKind("star"); !errors.Is(err, ErrInvalidShapeKind) {
		t.Errorf("ParseShapeKind(star) error = %v, want ErrInvalidShapeKind", err)
	}
}

func TestPointerEventsParse(t *testing.T) {
	for p := PointerEventsAuto; p <= PointerEventsNone; p++ {
		if got := ParsePointerEvents(p.String()); got != p {
			t.Errorf("ParsePointerEvents(%q) = %v, want %v", p.String(), got, p)
		}
	}
	if got := ParsePointerEvents("bogus"); got != PointerEventsAuto {
		t.Errorf("unknown value = %v, want auto", got)
	}
}

func TestPointerEventsPaintRules(t *testing.T) {
	tests := []struct {
		pe             PointerEvents
		fill, stroke   Color
		wantF, wantS   bool
		requireVisible bool
	}{
		{PointerEventsAuto, ColorBlack, ColorNone, true, false, true},
		{PointerEventsVisiblePainted, ColorNone, ColorBlack, false, true, true},
		{PointerEventsVisibleFill, ColorNone, ColorNone, true, false, true},
		{PointerEventsVisibleStroke, ColorNone, ColorNone, false, true, true},
		{PointerEventsPainted, ColorBlack, ColorBlack, true, true, false},
		{PointerEventsFill, ColorNone, ColorNone, true, false, false},
		{PointerEventsStroke, ColorNone, ColorNone, false, true, false},
		{PointerEventsAll, ColorNone, ColorNone, true, true, false},
		{PointerEventsNone, ColorBlack, ColorBlack, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.pe.String(), func(t *testing.T) {
			if got := tt.pe.testsFill(tt.fill); got != tt.wantF {
				t.Errorf("testsFill = %v, want %v", got, tt.wantF)
			}
			if got := tt.pe.testsStroke(tt.stroke, 1); got != tt.wantS {
				t.Errorf("testsStroke = %v, want %v", got, tt.wantS)
			}
			if got := tt.pe.requiresVisible(); got != tt.requireVisible {
				t.Errorf("requiresVisible = %v, want %v", got, tt.requireVisible)
			}
		})
	}
	if PointerEventsAll.testsStroke(ColorBlack, 0) {
		t.Error("zero-width stroke should never be tested")
	}
}

func TestEventTypeBubbles(t *testing.T) {
	for et := EventPointerDown; et < eventTypeCount; et++ {
		want := et != EventPointerEnter && et != EventPointerLeave
		if got := et.bubbles(); got != want {
			t.Errorf("%s.bubbles() = %v, want %v", et, got, want)
		}
	}
}

func TestButtonsHas(t *testing.T) {
	b := Buttons(1<<MouseButtonLeft | 1<<MouseButtonMiddle)
	if !b.Has(MouseButtonLeft) || !b.Has(MouseButtonMiddle) {
		t.Error("expected left and middle pressed")
	}
	if b.Has(MouseButtonRight) {
		t.Error("right should not be pressed")
	}
	if got := primaryButton(b); got != MouseButtonLeft {
		t.Errorf("primaryButton = %v, want left", got)
	}
	if got := primaryButton(1 << MouseButtonRight); got != MouseButtonRight {
		t.Errorf("primaryButton = %v, want right", got)
	}
}

func TestStrokeOuterExtent(t *testing.T) {
	tests := []struct {
		align StrokeAlignment
		want  float64
	}{
		{StrokeCenter, 2},
		{StrokeInner, 0},
		{StrokeOuter, 4},
	}
	for _, tt := range tests {
		if got := tt.align.outerExtent(4); got != tt.want {
			t.Errorf("outerExtent(%d) = %v, want %v", tt.align, got, tt.want)
		}
	}
}

// --- AABB ---

func TestAABBEmpty(t *testing.T) {
	b := EmptyAABB()
	if !b.IsEmpty() {
		t.Fatal("EmptyAABB should be empty")
	}
	if b.Width() != 0 || b.Height() != 0 || b.Area() != 0 {
		t.Errorf("empty box size = %vx%v", b.Width(), b.Height())
	}
	if b.Intersects(NewAABB(-1e9, -1e9, 1e9, 1e9)) {
		t.Error("empty box should intersect nothing")
	}
	b.Union(NewAABB(1, 2, 3, 4))
	if b != NewAABB(1, 2, 3, 4) {
		t.Errorf("union into empty = %v", b)
	}
	if (Rect{}) != EmptyAABB().Rect() {
		t.Error("empty box should convert to zero Rect")
	}
}

func TestAABBNewOrdersCorners(t *testing.T) {
	b := NewAABB(10, 20, 0, 5)
	want := AABB{MinX: 0, MinY: 5, MaxX: 10, MaxY: 20}
	if b != want {
		t.Errorf("NewAABB = %v, want %v", b, want)
	}
	cx, cy := b.Center()
	if cx != 5 || cy != 12.5 {
		t.Errorf("Center = (%v, %v), want (5, 12.5)", cx, cy)
	}
}

func TestAABBIntersectsAndContains(t *testing.T) {
	base := NewAABB(0, 0, 10, 10)
	tests := []struct {
		name      string
		other     AABB
		intersect bool
		contain   bool
	}{
		{"overlap", NewAABB(5, 5, 15, 15), true, false},
		{"inside", NewAABB(2, 2, 8, 8), true, true},
		{"touching edge", NewAABB(10, 0, 20, 10), true, false},
		{"disjoint", NewAABB(11, 11, 20, 20), false, false},
		{"same", base, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Intersects(tt.other); got != tt.intersect {
				t.Errorf("Intersects = %v, want %v", got, tt.intersect)
			}
			if got := base.ContainsAABB(tt.other); got != tt.contain {
				t.Errorf("ContainsAABB = %v, want %v", got, tt.contain)
			}
		})
	}
}

func TestAABBTransformedRotation(t *testing.T) {
	b := NewAABB(-1, -1, 1, 1)
	got := b.Transformed(RotateAffine(math.Pi / 4))
	r := math.Sqrt2
	if !approxEqual(got.MinX, -r, epsilon) || !approxEqual(got.MaxX, r, epsilon) ||
		!approxEqual(got.MinY, -r, epsilon) || !approxEqual(got.MaxY, r, epsilon) {
		t.Errorf("rotated box = %v, want ±%v", got, r)
	}
}

func TestAABBAddBoundsNilMatrix(t *testing.T) {
	b := EmptyAABB()
	b.AddBounds(NewAABB(0, 0, 1, 1), nil)
	m := TranslateAffine(10, 0)
	b.AddBounds(NewAABB(0, 0, 1, 1), &m)
	if b != NewAABB(0, 0, 11, 1) {
		t.Errorf("AddBounds = %v", b)
	}
}

func TestAABBExpand(t *testing.T) {
	b := NewAABB(0, 0, 10, 10).Expand(2)
	if b != NewAABB(-2, -2, 12, 12) {
		t.Errorf("Expand = %v", b)
	}
	if !EmptyAABB().Expand(5).IsEmpty() {
		t.Error("expanding an empty box should keep it empty")
	}
}
