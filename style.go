package canvas

import "math"

// Shadow describes a drop or inner shadow. A shadow whose Color is ColorNone
// is disabled.
type Shadow struct {
	Color   Color
	OffsetX float64
	OffsetY float64
	// Blur is the blur radius. The Gaussian's standard deviation is Blur/2.
	Blur float64
}

// Enabled reports whether the shadow paints anything.
func (s Shadow) Enabled() bool { return !s.Color.IsNone() && s.Color.A > 0 }

// Sigma returns the Gaussian standard deviation, Blur/2.
func (s Shadow) Sigma() float64 { return math.Max(s.Blur, 0) / 2 }

// reach is how far the blurred shadow visibly extends past its box.
func (s Shadow) reach() float64 { return 3 * s.Sigma() }

// RenderAttributes is the style block shared by every shape kind.
type RenderAttributes struct {
	Fill            Color
	Stroke          Color
	StrokeWidth     float64
	StrokeAlignment StrokeAlignment
	StrokeCap       LineCap
	StrokeJoin      LineJoin
	MiterLimit      float64
	Opacity         float64
	FillOpacity     float64
	StrokeOpacity   float64
	DropShadow      Shadow
	InnerShadow     Shadow
	PointerEvents   PointerEvents
}

// DefaultAttributes returns the attributes new shapes start with: black fill,
// no stroke, fully opaque.
func DefaultAttributes() RenderAttributes {
	return RenderAttributes{
		Fill:          ColorBlack,
		Stroke:        ColorNone,
		StrokeWidth:   1,
		MiterLimit:    4,
		Opacity:       1,
		FillOpacity:   1,
		StrokeOpacity: 1,
	}
}

// hasStroke reports whether a stroke is painted.
func (a *RenderAttributes) hasStroke() bool {
	return !a.Stroke.IsNone() && a.StrokeWidth > 0
}

// extentKey holds the attributes that move render bounds.
type extentKey struct {
	width  float64
	stroke bool
	align  StrokeAlignment
	cap    LineCap
	join   LineJoin
	miter  float64
	shadow Shadow
}

func (a *RenderAttributes) extentKey() extentKey {
	return extentKey{
		width:  a.StrokeWidth,
		stroke: a.hasStroke(),
		align:  a.StrokeAlignment,
		cap:    a.StrokeCap,
		join:   a.StrokeJoin,
		miter:  a.MiterLimit,
		shadow: a.DropShadow,
	}
}

// Attributes returns a copy of the node's style block.
func (n *Node) Attributes() RenderAttributes { return n.attrs }

// SetAttributes replaces the node's style block. Render bounds are
// invalidated only if a bounds-affecting attribute changed.
func (n *Node) SetAttributes(a RenderAttributes) {
	if a == n.attrs {
		return
	}
	extent := a.extentKey() != n.attrs.extentKey()
	n.attrs = a
	if extent {
		n.markExtentDirty()
	} else {
		n.markRenderDirty()
	}
}

func (n *Node) updateAttrs(fn func(a *RenderAttributes)) {
	a := n.attrs
	fn(&a)
	n.SetAttributes(a)
}

// SetFill sets the fill paint. ColorNone disables the fill.
func (n *Node) SetFill(c Color) { n.updateAttrs(func(a *RenderAttributes) { a.Fill = c }) }

// SetStroke sets the stroke paint. ColorNone disables the stroke.
func (n *Node) SetStroke(c Color) { n.updateAttrs(func(a *RenderAttributes) { a.Stroke = c }) }

// SetStrokeWidth sets the stroke width.
func (n *Node) SetStrokeWidth(w float64) {
	if w < 0 {
		w = 0
	}
	n.updateAttrs(func(a *RenderAttributes) { a.StrokeWidth = w })
}

// SetStrokeAlignment sets where the stroke sits relative to the outline.
func (n *Node) SetStrokeAlignment(al StrokeAlignment) {
	n.updateAttrs(func(a *RenderAttributes) { a.StrokeAlignment = al })
}

// SetStrokeCap sets the cap used at open path ends.
func (n *Node) SetStrokeCap(c LineCap) { n.updateAttrs(func(a *RenderAttributes) { a.StrokeCap = c }) }

// SetStrokeJoin sets the join used between path segments.
func (n *Node) SetStrokeJoin(j LineJoin) {
	n.updateAttrs(func(a *RenderAttributes) { a.StrokeJoin = j })
}

// SetOpacity sets the shape's overall opacity.
func (n *Node) SetOpacity(o float64) {
	n.updateAttrs(func(a *RenderAttributes) { a.Opacity = clamp01(o) })
}

// SetFillOpacity sets the fill opacity.
func (n *Node) SetFillOpacity(o float64) {
	n.updateAttrs(func(a *RenderAttributes) { a.FillOpacity = clamp01(o) })
}

// SetStrokeOpacity sets the stroke opacity.
func (n *Node) SetStrokeOpacity(o float64) {
	n.updateAttrs(func(a *RenderAttributes) { a.StrokeOpacity = clamp01(o) })
}

// SetDropShadow sets the drop shadow. Drop shadows grow render bounds.
func (n *Node) SetDropShadow(s Shadow) { n.updateAttrs(func(a *RenderAttributes) { a.DropShadow = s }) }

// SetInnerShadow sets the inner shadow. Inner shadows paint inside the
// geometry and do not grow render bounds.
func (n *Node) SetInnerShadow(s Shadow) {
	n.updateAttrs(func(a *RenderAttributes) { a.InnerShadow = s })
}

// SetPointerEvents sets the node's hit-testing policy.
func (n *Node) SetPointerEvents(p PointerEvents) {
	// Picking reads attrs directly; nothing visual changes.
	n.attrs.PointerEvents = p
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
