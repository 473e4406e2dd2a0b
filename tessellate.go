package canvas

import "math"

// meshVertex is a tessellated vertex: local position plus premultiplied
// color. 24 bytes on the GPU.
type meshVertex struct {
	X, Y       float32
	R, G, B, A float32
}

const meshVertexSize = 24

// meshBuilder accumulates triangles for one path or polyline.
type meshBuilder struct {
	verts   []meshVertex
	indices []uint32
	color   [4]float32
	tol     float64
}

func (m *meshBuilder) reset() {
	m.verts = m.verts[:0]
	m.indices = m.indices[:0]
}

func (m *meshBuilder) vertex(p Vec2) uint32 {
	m.verts = append(m.verts, meshVertex{
		X: float32(p.X), Y: float32(p.Y),
		R: m.color[0], G: m.color[1], B: m.color[2], A: m.color[3],
	})
	return uint32(len(m.verts) - 1)
}

func (m *meshBuilder) triangle(a, b, c Vec2) {
	i := m.vertex(a)
	m.vertex(b)
	m.vertex(c)
	m.indices = append(m.indices, i, i+1, i+2)
}

func (m *meshBuilder) quad(a, b, c, d Vec2) {
	i := m.vertex(a)
	m.vertex(b)
	m.vertex(c)
	m.vertex(d)
	m.indices = append(m.indices, i, i+1, i+2, i, i+2, i+3)
}

// signedArea returns the shoelace area of a closed ring. Positive when the
// left normal (-dy, dx) of each edge points inward.
func signedArea(pts []Vec2) float64 {
	var a float64
	for i := range pts {
		p, q := pts[i], pts[(i+1)%len(pts)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

// fill triangulates each subpath by ear clipping. Subpaths are treated as
// independent simple polygons; holes are not cut out.
func (m *meshBuilder) fill(sps []Subpath) {
	var ring []int
	for _, sp := range sps {
		pts := dedupe(sp.Points)
		if len(pts) < 3 {
			continue
		}
		ccw := signedArea(pts) > 0
		ring = ring[:0]
		for i := range pts {
			if ccw {
				ring = append(ring, i)
			} else {
				ring = append(ring, len(pts)-1-i)
			}
		}
		base := uint32(len(m.verts))
		for _, p := range pts {
			m.vertex(p)
		}
		m.earClip(pts, ring, base)
	}
}

// earClip emits triangles for the ring of indices into pts, which must wind
// with positive area. Falls back to a fan when no ear can be found, which
// only happens for self-intersecting input.
func (m *meshBuilder) earClip(pts []Vec2, ring []int, base uint32) {
	guard := 0
	for len(ring) > 3 {
		n := len(ring)
		clipped := false
		for i := 0; i < n; i++ {
			ia, ib, ic := ring[(i+n-1)%n], ring[i], ring[(i+1)%n]
			a, b, c := pts[ia], pts[ib], pts[ic]
			if cross(a, b, c.X, c.Y) <= 0 {
				continue // reflex or degenerate
			}
			if ringHasPointInside(pts, ring, ia, ib, ic) {
				continue
			}
			m.indices = append(m.indices, base+uint32(ia), base+uint32(ib), base+uint32(ic))
			ring = append(ring[:i], ring[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			guard++
			if guard > 1 {
				break
			}
			// Drop collinear vertices once, then fan whatever is left.
			kept := ring[:0]
			for i := range ring {
				a, b, c := pts[ring[(i+len(ring)-1)%len(ring)]], pts[ring[i]], pts[ring[(i+1)%len(ring)]]
				if math.Abs(cross(a, b, c.X, c.Y)) > 1e-12 {
					kept = append(kept, ring[i])
				}
			}
			ring = kept
		}
	}
	if len(ring) == 3 {
		m.indices = append(m.indices, base+uint32(ring[0]), base+uint32(ring[1]), base+uint32(ring[2]))
		return
	}
	for i := 1; i+1 < len(ring); i++ {
		m.indices = append(m.indices, base+uint32(ring[0]), base+uint32(ring[i]), base+uint32(ring[i+1]))
	}
}

func ringHasPointInside(pts []Vec2, ring []int, ia, ib, ic int) bool {
	a, b, c := pts[ia], pts[ib], pts[ic]
	for _, j := range ring {
		if j == ia || j == ib || j == ic {
			continue
		}
		p := pts[j]
		if p == a || p == b || p == c {
			continue
		}
		if cross(a, b, p.X, p.Y) >= 0 && cross(b, c, p.X, p.Y) >= 0 && cross(c, a, p.X, p.Y) >= 0 {
			return true
		}
	}
	return false
}

// dedupe drops consecutive duplicate points and a closing point equal to the
// first.
func dedupe(pts []Vec2) []Vec2 {
	out := make([]Vec2, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// strokeStyle is the subset of attributes the stroker needs.
type strokeStyle struct {
	width float64
	align StrokeAlignment
	cap   LineCap
	join  LineJoin
	miter float64
}

// stroke emits quads along every segment plus joins and caps. Closed
// subpaths with inner or outer alignment are first offset by half the width
// toward the side the stroke belongs on.
func (m *meshBuilder) stroke(sps []Subpath, st strokeStyle) {
	hw := st.width / 2
	if hw <= 0 {
		return
	}
	for _, sp := range sps {
		pts := dedupe(sp.Points)
		if len(pts) < 2 {
			if len(pts) == 1 && st.cap != CapButt {
				m.dot(pts[0], hw, st.cap)
			}
			continue
		}
		closed := sp.Closed && len(pts) > 2
		if closed && st.align != StrokeCenter {
			pts = offsetRing(pts, hw, st.align)
		}
		segs := len(pts) - 1
		if closed {
			segs = len(pts)
		}
		for i := 0; i < segs; i++ {
			a, b := pts[i], pts[(i+1)%len(pts)]
			n := normal(a, b).Mul(hw)
			m.quad(a.Add(n), b.Add(n), b.Sub(n), a.Sub(n))
		}
		for i := 0; i < len(pts); i++ {
			if !closed && (i == 0 || i == len(pts)-1) {
				continue
			}
			prev := pts[(i+len(pts)-1)%len(pts)]
			next := pts[(i+1)%len(pts)]
			m.joinAt(prev, pts[i], next, hw, st)
		}
		if !closed {
			m.capAt(pts[1], pts[0], hw, st.cap)
			m.capAt(pts[len(pts)-2], pts[len(pts)-1], hw, st.cap)
		}
	}
}

// normal returns the unit left normal of a->b.
func normal(a, b Vec2) Vec2 {
	d := b.Sub(a)
	l := d.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{X: -d.Y / l, Y: d.X / l}
}

// offsetRing moves every vertex of a closed ring along its miter normal so
// the centered stroke of the result covers only the inside or outside band
// of the original outline.
func offsetRing(pts []Vec2, hw float64, align StrokeAlignment) []Vec2 {
	inward := 1.0
	if signedArea(pts) < 0 {
		inward = -1
	}
	dir := inward
	if align == StrokeOuter {
		dir = -inward
	}
	out := make([]Vec2, len(pts))
	for i, p := range pts {
		n0 := normal(pts[(i+len(pts)-1)%len(pts)], p)
		n1 := normal(p, pts[(i+1)%len(pts)])
		mn := n0.Add(n1)
		l := mn.Length()
		if l < 1e-9 {
			out[i] = p.Add(n1.Mul(hw * dir))
			continue
		}
		mn = mn.Mul(1 / l)
		cos := mn.Dot(n1)
		scale := hw
		if cos > 0.1 {
			scale = hw / cos
		}
		out[i] = p.Add(mn.Mul(scale * dir))
	}
	return out
}

// joinAt fills the wedge on the outer side of the corner at p.
func (m *meshBuilder) joinAt(prev, p, next Vec2, hw float64, st strokeStyle) {
	n0 := normal(prev, p)
	n1 := normal(p, next)
	turn := cross(prev, p, next.X, next.Y)
	if math.Abs(turn) < 1e-12 || n0 == (Vec2{}) || n1 == (Vec2{}) {
		return
	}
	// The outer side is opposite the turn direction.
	side := -1.0
	if turn < 0 {
		side = 1
	}
	a := p.Add(n0.Mul(hw * side))
	b := p.Add(n1.Mul(hw * side))
	switch st.join {
	case JoinRound:
		// The outer wedge rotates with the turn.
		m.arc(p, a, b, hw, -side)
	case JoinMiter:
		mn := n0.Add(n1)
		l := mn.Length()
		cos := 0.0
		if l > 1e-9 {
			mn = mn.Mul(1 / l)
			cos = mn.Dot(n1)
		}
		limit := st.miter
		if limit < 1 {
			limit = 1
		}
		if cos > 1e-9 && 1/cos <= limit {
			tip := p.Add(mn.Mul(hw / cos * side))
			m.triangle(p, a, tip)
			m.triangle(p, tip, b)
			return
		}
		m.triangle(p, a, b)
	default:
		m.triangle(p, a, b)
	}
}

// capAt adds the cap at end, where the segment arrives from from.
func (m *meshBuilder) capAt(from, end Vec2, hw float64, c LineCap) {
	n := normal(from, end)
	if n == (Vec2{}) {
		return
	}
	d := Vec2{X: n.Y, Y: -n.X} // forward direction
	switch c {
	case CapSquare:
		ext := d.Mul(hw)
		m.quad(end.Add(n.Mul(hw)), end.Add(n.Mul(hw)).Add(ext), end.Sub(n.Mul(hw)).Add(ext), end.Sub(n.Mul(hw)))
	case CapRound:
		m.arc(end, end.Add(n.Mul(hw)), end.Sub(n.Mul(hw)), hw, -1)
	}
}

// dot draws the cap of a zero-length subpath.
func (m *meshBuilder) dot(p Vec2, hw float64, c LineCap) {
	if c == CapSquare {
		m.quad(Vec2{X: p.X - hw, Y: p.Y - hw}, Vec2{X: p.X + hw, Y: p.Y - hw},
			Vec2{X: p.X + hw, Y: p.Y + hw}, Vec2{X: p.X - hw, Y: p.Y + hw})
		return
	}
	m.arc(p, Vec2{X: p.X + hw, Y: p.Y}, Vec2{X: p.X - hw, Y: p.Y}, hw, 1)
	m.arc(p, Vec2{X: p.X - hw, Y: p.Y}, Vec2{X: p.X + hw, Y: p.Y}, hw, 1)
}

// arc fans triangles around center from a to b. dir picks the sweep
// direction: positive sweeps with increasing angle.
func (m *meshBuilder) arc(center, a, b Vec2, r, dir float64) {
	a0 := math.Atan2(a.Y-center.Y, a.X-center.X)
	a1 := math.Atan2(b.Y-center.Y, b.X-center.X)
	sweep := a1 - a0
	if dir > 0 {
		for sweep <= 0 {
			sweep += 2 * math.Pi
		}
	} else {
		for sweep >= 0 {
			sweep -= 2 * math.Pi
		}
	}
	steps := arcSegments(math.Abs(sweep), r, m.tol)
	prev := a
	for i := 1; i <= steps; i++ {
		t := a0 + sweep*float64(i)/float64(steps)
		cur := Vec2{X: center.X + r*math.Cos(t), Y: center.Y + r*math.Sin(t)}
		if i == steps {
			cur = b
		}
		m.triangle(center, prev, cur)
		prev = cur
	}
}

// arcSegments returns how many chords approximate an arc within tol.
func arcSegments(sweep, r, tol float64) int {
	if tol <= 0 {
		tol = DefaultFlattenTolerance
	}
	if r <= tol {
		return 2
	}
	step := 2 * math.Acos(1-tol/r)
	n := int(math.Ceil(sweep / step))
	return max(2, min(n, 64))
}
