package canvas

import "sort"

// BoxMode selects how PickBox matches shapes against the selection box.
type BoxMode uint8

const (
	BoxIntersect BoxMode = iota // shape bounds overlap the box
	BoxContain                  // shape bounds lie entirely inside the box
)

// hitTest reports whether the canvas point (x, y) hits n under its
// pointer-events policy.
func (n *Node) hitTest(x, y float64) bool {
	if n.disposed || n.geom == nil {
		return false
	}
	a := &n.attrs
	pe := n.PointerEventsInEffect()
	if pe == PointerEventsNone {
		return false
	}
	if pe.requiresVisible() && !n.visible {
		return false
	}
	fill := pe.testsFill(a.Fill)
	stroke := pe.testsStroke(a.Stroke, a.StrokeWidth)
	if !fill && !stroke {
		return false
	}
	lx, ly := n.WorldToLocal(x, y)
	if fill && n.containsFill(lx, ly) {
		return true
	}
	return stroke && n.hitStroke(lx, ly)
}

// PointerEventsInEffect returns n's pointer-events policy. A node left at
// auto takes the policy of its nearest ancestor that sets one, so a group
// set to none turns off picking for every auto descendant.
func (n *Node) PointerEventsInEffect() PointerEvents {
	for p := n; p != nil; p = p.parent {
		if pe := p.attrs.PointerEvents; pe != PointerEventsAuto {
			return pe
		}
	}
	return PointerEventsAuto
}

// HitTest reports whether the canvas point hits n, using the node's current
// world transform and pointer-events policy.
func (n *Node) HitTest(x, y float64) bool { return n.hitTest(x, y) }

// sortTopmostFirst orders nodes by descending paint order.
func sortTopmostFirst(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].paintOrder > nodes[j].paintOrder })
}

// PickAll returns every shape under the canvas point, topmost first. The
// spatial index and paint order are those of the last Update.
func (s *Scene) PickAll(x, y float64) []*Node {
	cands := s.index.SearchPoint(x, y, nil)
	hits := cands[:0]
	for _, n := range cands {
		if n.hitTest(x, y) {
			hits = append(hits, n)
		}
	}
	sortTopmostFirst(hits)
	return hits
}

// PickTop returns the topmost shape under the canvas point, or nil.
func (s *Scene) PickTop(x, y float64) *Node {
	s.cullBuf = s.index.SearchPoint(x, y, s.cullBuf[:0])
	var top *Node
	for _, n := range s.cullBuf {
		if (top == nil || n.paintOrder > top.paintOrder) && n.hitTest(x, y) {
			top = n
		}
	}
	clear(s.cullBuf)
	return top
}

// PickAllAt is PickAll for a viewport position.
func (s *Scene) PickAllAt(vx, vy float64) []*Node {
	return s.PickAll(s.camera.ViewportToCanvas(vx, vy))
}

// PickTopAt is PickTop for a viewport position.
func (s *Scene) PickTopAt(vx, vy float64) *Node {
	return s.PickTop(s.camera.ViewportToCanvas(vx, vy))
}

// PickBox returns the shapes selected by a canvas-space box, topmost first.
// Shapes with pointer-events none are never selected.
func (s *Scene) PickBox(box AABB, mode BoxMode) []*Node {
	cands := s.index.Search(box, nil)
	hits := cands[:0]
	for _, n := range cands {
		if n.disposed || n.PointerEventsInEffect() == PointerEventsNone {
			continue
		}
		b, ok := s.index.Bounds(n)
		if !ok {
			continue
		}
		if mode == BoxContain && !box.ContainsAABB(b) {
			continue
		}
		hits = append(hits, n)
	}
	sortTopmostFirst(hits)
	return hits
}

// PickViewportBox is PickBox for a rectangle dragged between two viewport
// positions. The rectangle is converted through the camera, so under
// rotation the selection covers its canvas-space bounding box.
func (s *Scene) PickViewportBox(x0, y0, x1, y1 float64, mode BoxMode) []*Node {
	box := EmptyAABB()
	for _, p := range [4][2]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}} {
		box.AddPoint(s.camera.ViewportToCanvas(p[0], p[1]))
	}
	return s.PickBox(box, mode)
}
