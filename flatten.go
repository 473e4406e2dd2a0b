package canvas

import (
	"math"

	"seehuhn.de/go/geom/path"
)

// DefaultFlattenTolerance is the maximum distance, in local units, between a
// curve and the polyline that replaces it.
const DefaultFlattenTolerance = 0.25

// maxCurveSegments caps the segments generated for a single curve.
const maxCurveSegments = 256

// Subpath is a flattened run of points. Closed subpaths connect their last
// point back to the first.
type Subpath struct {
	Points []Vec2
	Closed bool
}

// subpaths returns the node's flattened outline, cached until the geometry
// changes. Only paths and polylines have subpaths.
func (n *Node) subpaths() []Subpath {
	if n.flatSeen == n.geomVersion && n.flatSubpaths != nil {
		return n.flatSubpaths
	}
	tol := DefaultFlattenTolerance
	if n.scene != nil && n.scene.cfg.FlattenTolerance > 0 {
		tol = n.scene.cfg.FlattenTolerance
	}
	var out []Subpath
	switch g := n.geom.(type) {
	case *PathGeometry:
		out = FlattenPath(g.Data, tol)
	case *PolylineGeometry:
		if len(g.Points) > 0 {
			pts := make([]Vec2, len(g.Points))
			copy(pts, g.Points)
			out = []Subpath{{Points: pts}}
		}
	}
	if out == nil {
		out = []Subpath{}
	}
	n.flatSubpaths = out
	n.flatSeen = n.geomVersion
	return out
}

// Subpaths returns the node's flattened outline for paths and polylines.
func (n *Node) Subpaths() []Subpath { return n.subpaths() }

// FlattenPath converts a path into polylines with curves subdivided so that no
// point strays more than tol from the true curve. Curves whose endpoints
// coincide degrade to a line to their end point.
func FlattenPath(d *path.Data, tol float64) []Subpath {
	if d == nil || len(d.Cmds) == 0 {
		return nil
	}
	if tol <= 0 {
		tol = DefaultFlattenTolerance
	}
	var (
		out      []Subpath
		cur      *Subpath
		current  Vec2
		start    Vec2
		coordIdx int
	)
	ensure := func() {
		if cur == nil {
			out = append(out, Subpath{Points: []Vec2{current}})
			cur = &out[len(out)-1]
		}
	}
	for _, cmd := range d.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			current = d.Coords[coordIdx]
			start = current
			coordIdx++
			out = append(out, Subpath{Points: []Vec2{current}})
			cur = &out[len(out)-1]
		case path.CmdLineTo:
			ensure()
			current = d.Coords[coordIdx]
			coordIdx++
			cur.Points = append(cur.Points, current)
		case path.CmdQuadTo:
			ensure()
			c1, end := d.Coords[coordIdx], d.Coords[coordIdx+1]
			coordIdx += 2
			if current == end {
				cur.Points = append(cur.Points, end)
			} else {
				cur.Points = flattenQuad(cur.Points, current, c1, end, tol)
			}
			current = end
		case path.CmdCubeTo:
			ensure()
			c1, c2, end := d.Coords[coordIdx], d.Coords[coordIdx+1], d.Coords[coordIdx+2]
			coordIdx += 3
			if current == end {
				cur.Points = append(cur.Points, end)
			} else {
				cur.Points = flattenCubic(cur.Points, current, c1, c2, end, tol)
			}
			current = end
		case path.CmdClose:
			if cur != nil {
				cur.Closed = true
				cur = nil
			}
			current = start
		}
	}
	// Drop subpaths that are a lone moveTo.
	kept := out[:0]
	for _, sp := range out {
		if len(sp.Points) > 1 {
			kept = append(kept, sp)
		}
	}
	return kept
}

// wangSegments returns the subdivision count for a Bézier curve of the given
// degree from Wang's formula, given the largest second difference magnitude.
func wangSegments(degree int, maxSecondDiff, tol float64) int {
	k := float64(degree*(degree-1)) / (8 * tol)
	n := int(math.Ceil(math.Sqrt(k * maxSecondDiff)))
	if n < 1 {
		n = 1
	}
	if n > maxCurveSegments {
		n = maxCurveSegments
	}
	return n
}

func flattenQuad(dst []Vec2, p0, p1, p2 Vec2, tol float64) []Vec2 {
	dd := p0.Sub(p1.Mul(2)).Add(p2).Length()
	n := wangSegments(2, dd, tol)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		mt := 1 - t
		dst = append(dst, Vec2{
			X: mt*mt*p0.X + 2*mt*t*p1.X + t*t*p2.X,
			Y: mt*mt*p0.Y + 2*mt*t*p1.Y + t*t*p2.Y,
		})
	}
	return dst
}

func flattenCubic(dst []Vec2, p0, p1, p2, p3 Vec2, tol float64) []Vec2 {
	d1 := p0.Sub(p1.Mul(2)).Add(p2).Length()
	d2 := p1.Sub(p2.Mul(2)).Add(p3).Length()
	n := wangSegments(3, math.Max(d1, d2), tol)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		mt := 1 - t
		a := mt * mt * mt
		b := 3 * mt * mt * t
		c := 3 * mt * t * t
		e := t * t * t
		dst = append(dst, Vec2{
			X: a*p0.X + b*p1.X + c*p2.X + e*p3.X,
			Y: a*p0.Y + b*p1.Y + c*p2.Y + e*p3.Y,
		})
	}
	return dst
}

// polygonContains tests (x, y) against the filled region of the subpaths,
// each implicitly closed.
func polygonContains(sps []Subpath, x, y float64, rule FillRule) bool {
	winding := 0
	crossings := 0
	for _, sp := range sps {
		pts := sp.Points
		if len(pts) < 3 {
			continue
		}
		for i := range pts {
			a := pts[i]
			b := pts[(i+1)%len(pts)]
			if a.Y <= y {
				if b.Y > y && cross(a, b, x, y) > 0 {
					winding++
					crossings++
				}
			} else if b.Y <= y && cross(a, b, x, y) < 0 {
				winding--
				crossings++
			}
		}
	}
	if rule == FillEvenOdd {
		return crossings%2 == 1
	}
	return winding != 0
}

// cross returns the z component of (b-a) x (p-a).
func cross(a, b Vec2, x, y float64) float64 {
	return (b.X-a.X)*(y-a.Y) - (x-a.X)*(b.Y-a.Y)
}

// polylineDistance returns the distance from (x, y) to the nearest segment
// of the subpaths, including closing segments of closed subpaths. Returns
// +Inf when there are no segments.
func polylineDistance(sps []Subpath, x, y float64) float64 {
	best := math.Inf(1)
	p := Vec2{X: x, Y: y}
	for _, sp := range sps {
		pts := sp.Points
		segs := len(pts) - 1
		if sp.Closed {
			segs = len(pts)
		}
		for i := 0; i < segs; i++ {
			d := segmentDistance(p, pts[i], pts[(i+1)%len(pts)])
			if d < best {
				best = d
			}
		}
	}
	return best
}

func segmentDistance(p, a, b Vec2) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Sub(a).Length()
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Sub(a.Add(ab.Mul(t))).Length()
}
