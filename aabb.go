package canvas

import "math"

// AABB is an axis-aligned bounding box. An empty box has Min > Max; unioning
// anything into it yields that thing.
type AABB struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// EmptyAABB returns a box that contains nothing.
func EmptyAABB() AABB {
	return AABB{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
}

// NewAABB returns the box spanning the two corner points in any order.
func NewAABB(x0, y0, x1, y1 float64) AABB {
	return AABB{
		MinX: math.Min(x0, x1), MinY: math.Min(y0, y1),
		MaxX: math.Max(x0, x1), MaxY: math.Max(y0, y1),
	}
}

// IsEmpty reports whether the box contains no points.
func (b AABB) IsEmpty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

// Width returns the box width, or 0 when empty.
func (b AABB) Width() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.MaxX - b.MinX
}

// Height returns the box height, or 0 when empty.
func (b AABB) Height() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.MaxY - b.MinY
}

// Center returns the box center.
func (b AABB) Center() (float64, float64) {
	return (b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2
}

// Area returns the box area.
func (b AABB) Area() float64 {
	return b.Width() * b.Height()
}

// AddPoint grows the box to contain (x, y).
func (b *AABB) AddPoint(x, y float64) {
	if x < b.MinX {
		b.MinX = x
	}
	if y < b.MinY {
		b.MinY = y
	}
	if x > b.MaxX {
		b.MaxX = x
	}
	if y > b.MaxY {
		b.MaxY = y
	}
}

// Union grows the box to contain o.
func (b *AABB) Union(o AABB) {
	if o.IsEmpty() {
		return
	}
	b.AddPoint(o.MinX, o.MinY)
	b.AddPoint(o.MaxX, o.MaxY)
}

// AddBounds grows the box to contain o transformed by m. A nil m adds o
// unchanged. The four corners are transformed, so the result stays
// conservative under rotation and skew.
func (b *AABB) AddBounds(o AABB, m *Affine) {
	if o.IsEmpty() {
		return
	}
	if m == nil {
		b.Union(o)
		return
	}
	b.AddPoint(m.Apply(o.MinX, o.MinY))
	b.AddPoint(m.Apply(o.MaxX, o.MinY))
	b.AddPoint(m.Apply(o.MaxX, o.MaxY))
	b.AddPoint(m.Apply(o.MinX, o.MaxY))
}

// Transformed returns the bounds of b under m.
func (b AABB) Transformed(m Affine) AABB {
	out := EmptyAABB()
	out.AddBounds(b, &m)
	return out
}

// Expand returns the box grown by d on every side.
func (b AABB) Expand(d float64) AABB {
	if b.IsEmpty() {
		return b
	}
	return AABB{MinX: b.MinX - d, MinY: b.MinY - d, MaxX: b.MaxX + d, MaxY: b.MaxY + d}
}

// Intersects reports whether b and o overlap. Touching edges count.
func (b AABB) Intersects(o AABB) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}
	return b.MinX <= o.MaxX && b.MaxX >= o.MinX &&
		b.MinY <= o.MaxY && b.MaxY >= o.MinY
}

// Contains reports whether (x, y) lies inside b. Edges count.
func (b AABB) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// ContainsAABB reports whether o lies entirely inside b.
func (b AABB) ContainsAABB(o AABB) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}
	return o.MinX >= b.MinX && o.MaxX <= b.MaxX &&
		o.MinY >= b.MinY && o.MaxY <= b.MaxY
}

// Rect converts the box to a Rect.
func (b AABB) Rect() Rect {
	if b.IsEmpty() {
		return Rect{}
	}
	return Rect{X: b.MinX, Y: b.MinY, Width: b.MaxX - b.MinX, Height: b.MaxY - b.MinY}
}
