package canvas

import "math"

// CPU versions of the signed distance and coverage functions evaluated by the
// shape shaders. Picking uses the distance functions directly; tests compare
// them against known values.

// SDFCircle returns the signed distance from (px, py) to a circle of radius r
// centered at the origin. Negative inside.
func SDFCircle(px, py, r float64) float64 {
	return math.Hypot(px, py) - r
}

// SDFEllipse returns an approximate signed distance from (px, py) to an
// axis-aligned ellipse with radii (rx, ry) centered at the origin, using the
// normalized-radius approximation k0*(k0-1)/k1. Exact on the boundary and
// along the axes, and monotonic elsewhere.
func SDFEllipse(px, py, rx, ry float64) float64 {
	if rx <= 0 || ry <= 0 {
		return math.Inf(1)
	}
	if rx == ry {
		return SDFCircle(px, py, rx)
	}
	k0 := math.Hypot(px/rx, py/ry)
	k1 := math.Hypot(px/(rx*rx), py/(ry*ry))
	if k1 == 0 {
		// Center of the ellipse.
		return -math.Min(rx, ry)
	}
	return k0 * (k0 - 1) / k1
}

// SDFRoundedBox returns the signed distance from (px, py) to a box with half
// extents (hx, hy) and corner radius r, centered at the origin.
func SDFRoundedBox(px, py, hx, hy, r float64) float64 {
	qx := math.Abs(px) - hx + r
	qy := math.Abs(py) - hy + r
	outside := math.Hypot(math.Max(qx, 0), math.Max(qy, 0))
	inside := math.Min(math.Max(qx, qy), 0)
	return outside + inside - r
}

// Coverage converts a signed distance into pixel coverage given the distance
// change per pixel (the screen-space derivative magnitude). Coverage is 0.5 on
// the boundary.
func Coverage(dist, pixelSize float64) float64 {
	if pixelSize <= 0 {
		if dist <= 0 {
			return 1
		}
		return 0
	}
	return clamp01(0.5 - dist/pixelSize)
}

// ShadeParams describes one shape fragment evaluation.
type ShadeParams struct {
	Dist        float64 // signed distance to the geometric outline
	PixelSize   float64 // distance units per pixel
	StrokeWidth float64
	Alignment   StrokeAlignment
	Fill        Color
	Stroke      Color
	Opacity     float64
	Epsilon     float64 // fragments with alpha below this are discarded
}

// Shade returns the premultiplied color of a fragment and whether it is kept.
// The outer edge sits at the stroke's outer extent; the stroke color is
// blended in where the inner distance (outer edge minus stroke width) crosses
// zero.
func Shade(p ShadeParams) ([4]float64, bool) {
	fill := p.Fill
	stroke := p.Stroke
	sw := p.StrokeWidth
	if stroke.IsNone() {
		sw = 0
	}
	outer := p.Dist - p.Alignment.outerExtent(sw)
	outerAlpha := Coverage(outer, p.PixelSize)

	var c [4]float64
	if sw <= 0 {
		c = [4]float64{fill.R * fill.A, fill.G * fill.A, fill.B * fill.A, fill.A}
	} else {
		inner := outer + sw
		innerAlpha := Coverage(inner, p.PixelSize)
		// premultiplied mix(stroke, fill, innerAlpha)
		sa := stroke.A * (1 - innerAlpha)
		fa := fill.A * innerAlpha
		c = [4]float64{
			stroke.R*sa + fill.R*fa,
			stroke.G*sa + fill.G*fa,
			stroke.B*sa + fill.B*fa,
			sa + fa,
		}
	}
	k := outerAlpha * p.Opacity
	for i := range c {
		c[i] *= k
	}
	if c[3] < p.Epsilon {
		return [4]float64{}, false
	}
	return c, true
}

// BoxShadow returns the shadow intensity at (px, py) for a box spanning
// [x0, x1] x [y0, y1] blurred with standard deviation sigma. It is the
// product of two 1-D Gaussian integrals. sigma <= 0 gives a hard edge.
func BoxShadow(px, py, x0, y0, x1, y1, sigma float64) float64 {
	if sigma <= 0 {
		if px >= x0 && px <= x1 && py >= y0 && py <= y1 {
			return 1
		}
		return 0
	}
	s := math.Sqrt(0.5) / sigma
	ix := 0.5 * (math.Erf((px-x0)*s) - math.Erf((px-x1)*s))
	iy := 0.5 * (math.Erf((py-y0)*s) - math.Erf((py-y1)*s))
	return ix * iy
}

// gaussian evaluates the normal density with the given sigma at x.
func gaussian(x, sigma float64) float64 {
	return math.Exp(-(x*x)/(2*sigma*sigma)) / (math.Sqrt(2*math.Pi) * sigma)
}

// roundedBoxShadowX integrates the blurred rounded box along x for one row.
func roundedBoxShadowX(x, y, sigma, corner, hx, hy float64) float64 {
	delta := math.Min(hy-corner-math.Abs(y), 0)
	curved := hx - corner + math.Sqrt(math.Max(0, corner*corner-delta*delta))
	s := math.Sqrt(0.5) / sigma
	return 0.5 * (math.Erf((x+curved)*s) - math.Erf((x-curved)*s))
}

// RoundedBoxShadow returns the shadow intensity at (px, py), relative to the
// box center, for a box with half extents (hx, hy) and corner radius r,
// blurred with standard deviation sigma. The vertical blur is approximated by
// samples Gaussian-weighted rows. sigma <= 0 gives a hard edge.
func RoundedBoxShadow(px, py, hx, hy, r, sigma float64, samples int) float64 {
	if sigma <= 0 {
		if SDFRoundedBox(px, py, hx, hy, r) <= 0 {
			return 1
		}
		return 0
	}
	if r <= 0 {
		return BoxShadow(px, py, -hx, -hy, hx, hy, sigma)
	}
	if samples < 1 {
		samples = 4
	}
	low := py - hy
	high := py + hy
	start := math.Max(-3*sigma, low)
	end := math.Min(3*sigma, high)
	if start >= end {
		return 0
	}
	step := (end - start) / float64(samples)
	y := start + step*0.5
	value := 0.0
	for i := 0; i < samples; i++ {
		value += roundedBoxShadowX(px, py-y, sigma, r, hx, hy) * gaussian(y, sigma) * step
		y += step
	}
	return value
}
