package canvas

import (
	"math"

	"seehuhn.de/go/geom/path"
)

// Geometry is the kind-specific part of a shape. Concrete types are
// CircleGeometry, EllipseGeometry, RectGeometry, PathGeometry,
// PolylineGeometry and TextGeometry.
type Geometry interface {
	Kind() ShapeKind
}

// CircleGeometry is a circle centered at (CX, CY).
type CircleGeometry struct {
	CX, CY, R float64
}

// Kind implements Geometry.
func (*CircleGeometry) Kind() ShapeKind { return KindCircle }

// EllipseGeometry is an axis-aligned ellipse centered at (CX, CY).
type EllipseGeometry struct {
	CX, CY, RX, RY float64
}

// Kind implements Geometry.
func (*EllipseGeometry) Kind() ShapeKind { return KindEllipse }

// RectGeometry is a rectangle with optional rounded corners.
type RectGeometry struct {
	X, Y, Width, Height float64
	CornerRadius        float64
}

// Kind implements Geometry.
func (*RectGeometry) Kind() ShapeKind { return KindRect }

// radius returns the corner radius clamped to half the shorter side.
func (g *RectGeometry) radius() float64 {
	r := g.CornerRadius
	limit := math.Min(math.Abs(g.Width), math.Abs(g.Height)) / 2
	if r > limit {
		r = limit
	}
	if r < 0 {
		r = 0
	}
	return r
}

// FillRule selects how path interiors are computed.
type FillRule uint8

const (
	FillNonZero FillRule = iota // nonzero winding
	FillEvenOdd                 // even-odd crossing count
)

// PathData is the command list of a path. Build it with MoveTo, LineTo,
// QuadTo, CubeTo and Close, or parse SVG path data with ParsePathData.
type PathData = path.Data

// PathGeometry is a vector path built from move/line/quad/cubic/close
// commands.
type PathGeometry struct {
	Data     *path.Data
	FillRule FillRule
}

// Kind implements Geometry.
func (*PathGeometry) Kind() ShapeKind { return KindPath }

// PolylineGeometry is an open sequence of points. Fills close it implicitly;
// strokes do not.
type PolylineGeometry struct {
	Points []Vec2
}

// Kind implements Geometry.
func (*PolylineGeometry) Kind() ShapeKind { return KindPolyline }

// --- Geometry bounds ---

// GeometryBounds returns the node's local-space geometry bounds, cached
// until the geometry changes. Groups return an empty box.
func (n *Node) GeometryBounds() AABB {
	if n.geomBoundsSeen == n.geomVersion {
		return n.geomBounds
	}
	b := EmptyAABB()
	switch g := n.geom.(type) {
	case *CircleGeometry:
		b = NewAABB(g.CX-g.R, g.CY-g.R, g.CX+g.R, g.CY+g.R)
	case *EllipseGeometry:
		b = NewAABB(g.CX-g.RX, g.CY-g.RY, g.CX+g.RX, g.CY+g.RY)
	case *RectGeometry:
		b = NewAABB(g.X, g.Y, g.X+g.Width, g.Y+g.Height)
	case *PathGeometry, *PolylineGeometry:
		for _, sp := range n.subpaths() {
			for _, p := range sp.Points {
				b.AddPoint(p.X, p.Y)
			}
		}
	case *TextGeometry:
		if l := n.TextLayout(); l != nil {
			b = l.Bounds
		}
	}
	n.geomBounds = b
	n.geomBoundsSeen = n.geomVersion
	return b
}

// strokeExtent returns how far the painted stroke reaches beyond the outline.
func (n *Node) strokeExtent() float64 {
	a := &n.attrs
	if !a.hasStroke() {
		return 0
	}
	ext := a.StrokeAlignment.outerExtent(a.StrokeWidth)
	switch n.kind {
	case KindPath, KindPolyline:
		// Open ends and joins reach further than the outline offset.
		if a.StrokeCap == CapSquare {
			ext = math.Max(ext, math.Sqrt2/2*a.StrokeWidth)
		}
		if a.StrokeJoin == JoinMiter && a.MiterLimit > 1 {
			ext = math.Max(ext, a.MiterLimit*a.StrokeWidth/2)
		}
	}
	return ext
}

// RenderBounds returns the node's local-space render bounds: geometry bounds
// grown by the stroke extent, unioned with the drop shadow box. Cached until
// geometry or a bounds-affecting attribute changes.
func (n *Node) RenderBounds() AABB {
	if n.renderBoundsSeen == n.extentVersion {
		return n.renderBounds
	}
	geom := n.GeometryBounds()
	b := geom.Expand(n.strokeExtent())
	if s := n.attrs.DropShadow; s.Enabled() && !geom.IsEmpty() {
		shadow := b.Expand(s.reach())
		shadow.MinX += s.OffsetX
		shadow.MaxX += s.OffsetX
		shadow.MinY += s.OffsetY
		shadow.MaxY += s.OffsetY
		b.Union(shadow)
	}
	n.renderBounds = b
	n.renderBoundsSeen = n.extentVersion
	return b
}

// WorldRenderBounds returns the render bounds transformed into world space.
// Cached until the world matrix or render bounds change.
func (n *Node) WorldRenderBounds() AABB {
	n.WorldTransform()
	return n.worldRenderBounds()
}

// worldRenderBounds is WorldRenderBounds for a node whose world matrix is
// already current.
func (n *Node) worldRenderBounds() AABB {
	key := [2]uint64{n.tf.worldVersion, n.extentVersion}
	if n.worldBoundsSeen == key {
		return n.worldBounds
	}
	n.worldBounds = n.RenderBounds().Transformed(n.tf.world)
	n.worldBoundsSeen = key
	return n.worldBounds
}

// GetBounds walks the subtree rooted at n and unions every visible shape's
// bounds into dst, expressed in the space m maps n's parent space into (pass
// IdentityAffine for parent space). With render set, render bounds are used
// instead of geometry bounds. The walk uses an explicit stack.
func (n *Node) GetBounds(dst *AABB, m Affine, render bool) {
	type frame struct {
		node *Node
		m    Affine
	}
	stack := []frame{{n, m.Mul(n.LocalTransform())}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !f.node.visible {
			continue
		}
		if f.node.geom != nil {
			var b AABB
			if render {
				b = f.node.RenderBounds()
			} else {
				b = f.node.GeometryBounds()
			}
			dst.AddBounds(b, &f.m)
		}
		for _, c := range f.node.children {
			stack = append(stack, frame{c, f.m.Mul(c.LocalTransform())})
		}
	}
}

// Bounds returns the subtree's bounds in n's parent space.
func (n *Node) Bounds(render bool) AABB {
	b := EmptyAABB()
	n.GetBounds(&b, IdentityAffine, render)
	return b
}

// WorldBounds returns the subtree's bounds in world space.
func (n *Node) WorldBounds(render bool) AABB {
	b := EmptyAABB()
	var parent Affine = IdentityAffine
	if n.parent != nil {
		parent = n.parent.WorldTransform()
	}
	n.GetBounds(&b, parent, render)
	return b
}

// --- Exact containment ---

// containsFill reports whether the local point lies in the fill region.
func (n *Node) containsFill(x, y float64) bool {
	switch g := n.geom.(type) {
	case *CircleGeometry:
		return SDFCircle(x-g.CX, y-g.CY, g.R) <= 0
	case *EllipseGeometry:
		return SDFEllipse(x-g.CX, y-g.CY, g.RX, g.RY) <= 0
	case *RectGeometry:
		cx, cy := g.X+g.Width/2, g.Y+g.Height/2
		return SDFRoundedBox(x-cx, y-cy, math.Abs(g.Width)/2, math.Abs(g.Height)/2, g.radius()) <= 0
	case *PathGeometry:
		return polygonContains(n.subpaths(), x, y, g.FillRule)
	case *PolylineGeometry:
		return polygonContains(n.subpaths(), x, y, FillNonZero)
	case *TextGeometry:
		if l := n.TextLayout(); l != nil {
			return l.contains(x, y)
		}
	}
	return false
}

// outlineDistance returns the signed distance from the local point to the
// stroked outline: negative inside closed shapes, positive outside. Open
// subpaths report an unsigned distance. Returns +Inf for shapes with no
// outline.
func (n *Node) outlineDistance(x, y float64) float64 {
	switch g := n.geom.(type) {
	case *CircleGeometry:
		return SDFCircle(x-g.CX, y-g.CY, g.R)
	case *EllipseGeometry:
		return SDFEllipse(x-g.CX, y-g.CY, g.RX, g.RY)
	case *RectGeometry:
		cx, cy := g.X+g.Width/2, g.Y+g.Height/2
		return SDFRoundedBox(x-cx, y-cy, math.Abs(g.Width)/2, math.Abs(g.Height)/2, g.radius())
	case *PathGeometry, *PolylineGeometry:
		sps := n.subpaths()
		d := polylineDistance(sps, x, y)
		if math.IsInf(d, 1) {
			return d
		}
		rule := FillNonZero
		if pg, ok := g.(*PathGeometry); ok {
			rule = pg.FillRule
		}
		if allClosed(sps) && polygonContains(sps, x, y, rule) {
			return -d
		}
		return d
	}
	return math.Inf(1)
}

// hitStroke reports whether the local point lies on the painted stroke band
// given the node's stroke width and alignment.
func (n *Node) hitStroke(x, y float64) bool {
	w := n.attrs.StrokeWidth
	if w <= 0 {
		return false
	}
	d := n.outlineDistance(x, y)
	if math.IsInf(d, 0) {
		return false
	}
	closed := true
	if n.kind == KindPath || n.kind == KindPolyline {
		closed = allClosed(n.subpaths())
	}
	if !closed {
		return math.Abs(d) <= w/2
	}
	switch n.attrs.StrokeAlignment {
	case StrokeInner:
		return d <= 0 && d >= -w
	case StrokeOuter:
		return d >= 0 && d <= w
	default:
		return math.Abs(d) <= w/2
	}
}

func allClosed(sps []Subpath) bool {
	if len(sps) == 0 {
		return false
	}
	for _, sp := range sps {
		if !sp.Closed {
			return false
		}
	}
	return true
}
