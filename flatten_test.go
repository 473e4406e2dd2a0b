package canvas

import (
	"math"
	"testing"
)

func TestFlattenPathLines(t *testing.T) {
	sps := FlattenPath(mustParsePath(t, "M0 0 L10 0 L10 10 Z M20 20 L30 30"), 0)
	if len(sps) != 2 {
		t.Fatalf("subpaths = %d, want 2", len(sps))
	}
	assertCoords(t, "first", sps[0].Points, Vec2{X: 0, Y: 0}, Vec2{X: 10, Y: 0}, Vec2{X: 10, Y: 10})
	if !sps[0].Closed {
		t.Error("first subpath should be closed")
	}
	assertCoords(t, "second", sps[1].Points, Vec2{X: 20, Y: 20}, Vec2{X: 30, Y: 30})
	if sps[1].Closed {
		t.Error("second subpath should be open")
	}
}

func TestFlattenPathEdgeCases(t *testing.T) {
	if FlattenPath(nil, 0) != nil {
		t.Error("nil data should flatten to nil")
	}

	sps := FlattenPath(mustParsePath(t, "M0 0 M5 5 L6 6"), 0)
	if len(sps) != 1 {
		t.Fatalf("lone moveTo kept: %d subpaths", len(sps))
	}
	assertCoords(t, "after lone moveTo", sps[0].Points, Vec2{X: 5, Y: 5}, Vec2{X: 6, Y: 6})

	// A curve back onto its own start is a single point, not a loop.
	sps = FlattenPath(mustParsePath(t, "M0 0 C5 5 -5 5 0 0"), 0)
	if len(sps) != 1 || len(sps[0].Points) != 2 {
		t.Fatalf("degenerate curve = %+v", sps)
	}

	// Drawing after a close starts a new subpath at the closed one's start.
	sps = FlattenPath(mustParsePath(t, "M0 0 L10 0 Z L0 10"), 0)
	if len(sps) != 2 {
		t.Fatalf("subpaths = %d, want 2", len(sps))
	}
	assertCoords(t, "after close", sps[1].Points, Vec2{X: 0, Y: 0}, Vec2{X: 0, Y: 10})
}

func quadAt(p0, p1, p2 Vec2, t float64) Vec2 {
	mt := 1 - t
	return Vec2{
		X: mt*mt*p0.X + 2*mt*t*p1.X + t*t*p2.X,
		Y: mt*mt*p0.Y + 2*mt*t*p1.Y + t*t*p2.Y,
	}
}

func TestFlattenPathCurveTolerance(t *testing.T) {
	p0, p1, p2 := Vec2{X: 0, Y: 0}, Vec2{X: 5, Y: 10}, Vec2{X: 10, Y: 0}
	for _, tol := range []float64{0.25, 0.01} {
		sps := FlattenPath(mustParsePath(t, "M0 0 Q5 10 10 0"), tol)
		if len(sps) != 1 {
			t.Fatalf("subpaths = %d, want 1", len(sps))
		}
		pts := sps[0].Points
		segs := len(pts) - 1
		if segs != wangSegments(2, 20, tol) {
			t.Errorf("tol %v: segments = %d, want %d", tol, segs, wangSegments(2, 20, tol))
		}
		if last := pts[len(pts)-1]; last != p2 {
			t.Errorf("tol %v: last point = %v, want %v", tol, last, p2)
		}
		for i := 0; i < segs; i++ {
			mid := pts[i].Add(pts[i+1]).Mul(0.5)
			on := quadAt(p0, p1, p2, (float64(i)+0.5)/float64(segs))
			if d := on.Sub(mid).Length(); d > tol {
				t.Errorf("tol %v: chord %d strays %v", tol, i, d)
			}
		}
	}
}

func TestWangSegments(t *testing.T) {
	tests := []struct {
		degree int
		dd     float64
		tol    float64
		want   int
	}{
		{2, 20, 0.25, 5},
		{3, 2, 0.25, 3},
		{3, 0, 0.25, 1},
		{3, 1e9, 0.25, maxCurveSegments},
	}
	for _, tt := range tests {
		if got := wangSegments(tt.degree, tt.dd, tt.tol); got != tt.want {
			t.Errorf("wangSegments(%d, %v, %v) = %d, want %d", tt.degree, tt.dd, tt.tol, got, tt.want)
		}
	}
}

func TestNodeSubpathsCached(t *testing.T) {
	n := NewPolyline("p", []Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}})
	a, b := n.Subpaths(), n.Subpaths()
	if len(a) != 1 || &a[0] != &b[0] {
		t.Fatal("subpaths not cached between calls")
	}
	if err := n.SetGeometry(&PolylineGeometry{Points: []Vec2{{X: 0, Y: 0}, {X: 0, Y: 5}, {X: 5, Y: 5}}}); err != nil {
		t.Fatal(err)
	}
	c := n.Subpaths()
	if len(c) != 1 || len(c[0].Points) != 3 {
		t.Errorf("subpaths after SetGeometry = %+v", c)
	}
	if NewCircle("c", 0, 0, 1).Subpaths() == nil || len(NewCircle("c", 0, 0, 1).Subpaths()) != 0 {
		t.Error("circles have no subpaths")
	}
}

func square(x0, y0, x1, y1 float64) []Vec2 {
	return []Vec2{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func reversed(pts []Vec2) []Vec2 {
	out := make([]Vec2, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

func TestPolygonContains(t *testing.T) {
	outer := Subpath{Points: square(0, 0, 10, 10), Closed: true}
	same := Subpath{Points: square(3, 3, 7, 7), Closed: true}
	opposite := Subpath{Points: reversed(square(3, 3, 7, 7)), Closed: true}

	tests := []struct {
		name string
		sps  []Subpath
		x, y float64
		rule FillRule
		want bool
	}{
		{"inside", []Subpath{outer}, 5, 5, FillNonZero, true},
		{"outside", []Subpath{outer}, 20, 5, FillNonZero, false},
		{"ring nonzero same winding", []Subpath{outer, same}, 5, 5, FillNonZero, true},
		{"ring evenodd same winding", []Subpath{outer, same}, 5, 5, FillEvenOdd, false},
		{"ring nonzero opposite winding", []Subpath{outer, opposite}, 5, 5, FillNonZero, false},
		{"ring band", []Subpath{outer, same}, 1, 5, FillEvenOdd, true},
		{"open subpath closes implicitly", []Subpath{{Points: square(0, 0, 10, 10)}}, 5, 5, FillNonZero, true},
		{"too few points", []Subpath{{Points: []Vec2{{X: 0, Y: 0}, {X: 10, Y: 10}}}}, 5, 5, FillNonZero, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := polygonContains(tt.sps, tt.x, tt.y, tt.rule); got != tt.want {
				t.Errorf("polygonContains = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolylineDistance(t *testing.T) {
	pts := []Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	open := []Subpath{{Points: pts}}
	closed := []Subpath{{Points: pts, Closed: true}}

	tests := []struct {
		name string
		sps  []Subpath
		x, y float64
		want float64
	}{
		{"above first segment", open, 5, 3, 3},
		{"right of second segment", open, 13, 5, 3},
		{"past the end", open, 10, 14, 4},
		{"open ignores closing segment", open, 4, 6, 6},
		{"closing segment", closed, 4, 6, math.Sqrt2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := polylineDistance(tt.sps, tt.x, tt.y); !approxEqual(got, tt.want, 1e-9) {
				t.Errorf("polylineDistance = %v, want %v", got, tt.want)
			}
		})
	}
	if !math.IsInf(polylineDistance(nil, 0, 0), 1) {
		t.Error("no segments should be infinitely far")
	}
	if !math.IsInf(polylineDistance([]Subpath{{Points: []Vec2{{X: 1, Y: 1}}}}, 0, 0), 1) {
		t.Error("a lone point has no segments")
	}
}
