package canvas

import (
	"math"
	"testing"
)

func pickNames(nodes []*Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	return names
}

func assertNames(t *testing.T, label string, got []*Node, want ...string) {
	t.Helper()
	names := pickNames(got)
	if len(names) != len(want) {
		t.Errorf("%s = %v, want %v", label, names, want)
		return
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("%s = %v, want %v", label, names, want)
			return
		}
	}
}

// stackedScene builds a rect A, a circle B over it and a small rect C on top.
func stackedScene(t *testing.T) (*Scene, *Node, *Node, *Node) {
	t.Helper()
	s, clk := newTestScene(t)
	a := NewRect("A", 0, 0, 100, 100)
	b := NewCircle("B", 50, 50, 30)
	c := NewRect("C", 40, 40, 20, 20)
	mustAdd(t, s.Root(), a, b, c)
	s.Update(clk.Now())
	return s, a, b, c
}

func TestPickTopOrder(t *testing.T) {
	s, a, b, c := stackedScene(t)
	tests := []struct {
		name string
		x, y float64
		want *Node
	}{
		{"all three", 50, 50, c},
		{"circle over rect", 50, 25, b},
		{"rect corner", 5, 5, a},
		{"outside circle inside rect", 22, 22, a},
		{"empty canvas", 500, 500, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.PickTop(tt.x, tt.y); got != tt.want {
				t.Errorf("PickTop(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestPickAllTopmostFirst(t *testing.T) {
	s, _, _, _ := stackedScene(t)
	assertNames(t, "PickAll(50, 50)", s.PickAll(50, 50), "C", "B", "A")
	assertNames(t, "PickAll(50, 25)", s.PickAll(50, 25), "B", "A")
	if got := s.PickAll(-10, -10); len(got) != 0 {
		t.Errorf("PickAll on empty canvas = %v", pickNames(got))
	}
}

func TestPickFollowsZIndex(t *testing.T) {
	s, a, _, _ := stackedScene(t)
	a.SetZIndex(1)
	s.Update(s.Platform().Now())
	if got := s.PickTop(50, 50); got != a {
		t.Errorf("PickTop = %v, want A raised by ZIndex", got)
	}
}

func TestPickAtViewport(t *testing.T) {
	s, _, b, _ := stackedScene(t)
	s.Camera().SetZoom(2)
	s.Camera().SetPosition(25, 0)
	// Viewport (50, 50) is canvas (50, 25).
	if got := s.PickTopAt(50, 50); got != b {
		t.Errorf("PickTopAt = %v, want B", got)
	}
	assertNames(t, "PickAllAt", s.PickAllAt(50, 50), "B", "A")
}

func TestPickStrokeOnly(t *testing.T) {
	s, clk := newTestScene(t)
	r := NewRect("frame", 0, 0, 100, 100)
	r.SetFill(ColorNone)
	r.SetStroke(ColorBlack)
	r.SetStrokeWidth(10)
	mustAdd(t, s.Root(), r)
	s.Update(clk.Now())

	tests := []struct {
		name string
		x, y float64
		hit  bool
	}{
		{"center", 50, 50, false},
		{"on edge", 0, 50, true},
		{"inside band", 4, 50, true},
		{"outside band", -4, 50, true},
		{"past inner half", 6, 50, false},
		{"past outer half", -6, 50, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.PickTop(tt.x, tt.y) != nil; got != tt.hit {
				t.Errorf("hit(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.hit)
			}
		})
	}
}

func TestHitStrokeAlignment(t *testing.T) {
	tests := []struct {
		align StrokeAlignment
		x     float64
		hit   bool
	}{
		{StrokeInner, 5, true},
		{StrokeInner, -1, false},
		{StrokeOuter, -5, true},
		{StrokeOuter, 1, false},
		{StrokeCenter, 4, true},
		{StrokeCenter, -4, true},
	}
	for _, tt := range tests {
		r := NewRect("r", 0, 0, 100, 100)
		r.SetFill(ColorNone)
		r.SetStroke(ColorBlack)
		r.SetStrokeWidth(8)
		r.SetStrokeAlignment(tt.align)
		if got := r.HitTest(tt.x, 50); got != tt.hit {
			t.Errorf("align %d HitTest(%v, 50) = %v, want %v", tt.align, tt.x, got, tt.hit)
		}
	}
}

func TestPointerEventsPolicies(t *testing.T) {
	tests := []struct {
		name   string
		pe     PointerEvents
		fill   Color
		hidden bool
		hit    bool
	}{
		{"auto filled", PointerEventsAuto, ColorBlack, false, true},
		{"auto unfilled", PointerEventsAuto, ColorNone, false, false},
		{"none", PointerEventsNone, ColorBlack, false, false},
		{"all unfilled", PointerEventsAll, ColorNone, false, true},
		{"visibleFill unfilled", PointerEventsVisibleFill, ColorNone, false, true},
		{"auto hidden", PointerEventsAuto, ColorBlack, true, false},
		{"fill hidden", PointerEventsFill, ColorBlack, true, true},
		{"painted hidden", PointerEventsPainted, ColorBlack, true, true},
		{"stroke only policy", PointerEventsStroke, ColorBlack, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCircle("c", 0, 0, 10)
			c.SetFill(tt.fill)
			c.SetPointerEvents(tt.pe)
			c.SetVisible(!tt.hidden)
			if got := c.HitTest(0, 0); got != tt.hit {
				t.Errorf("HitTest = %v, want %v", got, tt.hit)
			}
		})
	}
}

func TestPickSkipsHiddenAndNone(t *testing.T) {
	s, clk := newTestScene(t)
	under := NewRect("under", 0, 0, 100, 100)
	hidden := NewRect("hidden", 0, 0, 100, 100)
	hidden.SetVisible(false)
	ghost := NewRect("ghost", 0, 0, 100, 100)
	ghost.SetPointerEvents(PointerEventsNone)
	mustAdd(t, s.Root(), under, hidden, ghost)
	s.Update(clk.Now())
	if got := s.PickTop(50, 50); got != under {
		t.Errorf("PickTop = %v, want under", got)
	}
}

func TestPickNonRenderableStillPickable(t *testing.T) {
	s, clk := newTestScene(t)
	g := NewGroup("g")
	g.SetRenderable(false)
	c := NewCircle("c", 0, 0, 10)
	mustAdd(t, g, c)
	mustAdd(t, s.Root(), g)
	s.Update(clk.Now())
	if got := s.PickTop(0, 0); got != c {
		t.Errorf("PickTop = %v, want c", got)
	}
	_ = s.Render()
	if len(s.Commands()) != 0 {
		t.Error("non-renderable subtree should not be drawn")
	}
}

func TestPickRotatedShape(t *testing.T) {
	s, clk := newTestScene(t)
	bar := NewRect("bar", -50, -5, 100, 10)
	bar.SetPosition(200, 200)
	bar.SetRotation(math.Pi / 4)
	mustAdd(t, s.Root(), bar)
	s.Update(clk.Now())

	d := 30 / math.Sqrt2
	if got := s.PickTop(200+d, 200+d); got != bar {
		t.Error("point along the rotated axis should hit")
	}
	// Inside the world bounding box but off the rotated bar.
	if got := s.PickTop(200+d, 200-d); got != nil {
		t.Errorf("point off the bar hit %v", got)
	}
}

func TestPickPathFillRule(t *testing.T) {
	square := func(d *PathData, x0, y0, x1, y1 float64) *PathData {
		return d.MoveTo(Vec2{X: x0, Y: y0}).LineTo(Vec2{X: x1, Y: y0}).
			LineTo(Vec2{X: x1, Y: y1}).LineTo(Vec2{X: x0, Y: y1}).Close()
	}
	d := square(&PathData{}, 0, 0, 100, 100)
	d = square(d, 25, 25, 75, 75)

	nonzero := NewPath("nonzero", &PathGeometry{Data: d, FillRule: FillNonZero})
	evenodd := NewPath("evenodd", &PathGeometry{Data: d, FillRule: FillEvenOdd})
	if !nonzero.HitTest(50, 50) {
		t.Error("nonzero: same-winding hole should be filled")
	}
	if evenodd.HitTest(50, 50) {
		t.Error("evenodd: inner square should be a hole")
	}
	if !evenodd.HitTest(10, 10) {
		t.Error("evenodd: ring should be filled")
	}
}

func TestPickPolyline(t *testing.T) {
	line := NewPolyline("line", []Vec2{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}})
	line.SetFill(ColorNone)
	line.SetStroke(ColorBlack)
	line.SetStrokeWidth(6)
	tests := []struct {
		x, y float64
		hit  bool
	}{
		{50, 2, true},
		{50, 4, false},
		{102, 50, true},
		{60, 40, false}, // inside the implied fill, but unfilled
	}
	for _, tt := range tests {
		if got := line.HitTest(tt.x, tt.y); got != tt.hit {
			t.Errorf("HitTest(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.hit)
		}
	}
	line.SetFill(ColorBlack)
	if !line.HitTest(60, 40) {
		t.Error("filled polyline closes implicitly")
	}
}

func TestPickEllipse(t *testing.T) {
	e := NewEllipse("e", 0, 0, 50, 10)
	if !e.HitTest(40, 0) {
		t.Error("(40, 0) should be inside")
	}
	if e.HitTest(0, 20) {
		t.Error("(0, 20) should be outside")
	}
}

func TestPickBox(t *testing.T) {
	s, clk := newTestScene(t)
	a := NewRect("A", 0, 0, 100, 100)
	b := NewRect("B", 200, 0, 10, 10)
	ghost := NewRect("ghost", 0, 0, 10, 10)
	ghost.SetPointerEvents(PointerEventsNone)
	mustAdd(t, s.Root(), a, b, ghost)
	s.Update(clk.Now())

	assertNames(t, "intersect", s.PickBox(NewAABB(95, 0, 205, 5), BoxIntersect), "B", "A")
	assertNames(t, "contain", s.PickBox(NewAABB(-1, -1, 150, 150), BoxContain), "A")
	assertNames(t, "contain all", s.PickBox(NewAABB(-1, -1, 300, 300), BoxContain), "B", "A")
	if got := s.PickBox(NewAABB(500, 500, 600, 600), BoxIntersect); len(got) != 0 {
		t.Errorf("empty area = %v", pickNames(got))
	}
}

func TestPickViewportBox(t *testing.T) {
	s, clk := newTestScene(t)
	a := NewRect("A", 0, 0, 100, 100)
	b := NewRect("B", 150, 150, 10, 10)
	mustAdd(t, s.Root(), a, b)
	s.Update(clk.Now())
	s.Camera().SetZoom(2)
	// Dragged bottom-right to top-left; covers canvas (0, 0)-(101, 101).
	assertNames(t, "PickViewportBox", s.PickViewportBox(202, 202, 0, 0, BoxContain), "A")
}

func TestPickInheritsGroupPointerEvents(t *testing.T) {
	s, clk := newTestScene(t)
	g := NewGroup("g")
	g.SetPointerEvents(PointerEventsNone)
	inherits := NewRect("inherits", 0, 0, 100, 100)
	own := NewRect("own", 200, 0, 100, 100)
	own.SetPointerEvents(PointerEventsAll)
	mustAdd(t, g, inherits, own)
	mustAdd(t, s.Root(), g)
	s.Update(clk.Now())
	if got := inherits.PointerEventsInEffect(); got != PointerEventsNone {
		t.Errorf("PointerEventsInEffect = %v, want none", got)
	}
	if got := s.PickTop(50, 50); got != nil {
		t.Errorf("PickTop over inheriting child = %v, want nil", got)
	}
	if got := s.PickTop(250, 50); got != own {
		t.Errorf("PickTop over own policy = %v, want own", got)
	}
	g.SetPointerEvents(PointerEventsAuto)
	if got := s.PickTop(50, 50); got != inherits {
		t.Errorf("PickTop after reset = %v, want inherits", got)
	}
}
