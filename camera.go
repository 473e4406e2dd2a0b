package canvas

import (
	"math"
	"sort"
	"time"
)

// ZoomSteps is the ladder ZoomIn and ZoomOut move along.
var ZoomSteps = []float64{0.02, 0.05, 0.1, 0.15, 0.2, 0.33, 0.5, 0.75, 1, 1.25, 1.5, 2, 2.5, 3, 4}

// zoomStepEps absorbs float noise when comparing a zoom against the ladder.
const zoomStepEps = 1e-9

// NextZoomStep returns the smallest step strictly greater than z, or the
// largest step when z is already at or above it.
func NextZoomStep(z float64) float64 {
	i := sort.Search(len(ZoomSteps), func(i int) bool { return ZoomSteps[i] > z+zoomStepEps })
	if i == len(ZoomSteps) {
		return math.Max(z, ZoomSteps[len(ZoomSteps)-1])
	}
	return ZoomSteps[i]
}

// PrevZoomStep returns the largest step strictly less than z, or the
// smallest step when z is already at or below it.
func PrevZoomStep(z float64) float64 {
	i := sort.Search(len(ZoomSteps), func(i int) bool { return ZoomSteps[i] >= z-zoomStepEps })
	if i == 0 {
		return math.Min(z, ZoomSteps[0])
	}
	return ZoomSteps[i-1]
}

// Camera maps between canvas (world) space and the viewport. Its position is
// the canvas point shown at the viewport's top-left corner; zoom scales
// canvas units to pixels and rotation (radians) turns the camera, so content
// appears turned the opposite way.
//
// The camera-to-canvas matrix is Translate(x, y) * Rotate(rotation) *
// Scale(1/zoom); the view matrix is its inverse. Derived matrices are cached
// and recomputed only when an input changes.
type Camera struct {
	x, y     float64
	zoom     float64
	rotation float64
	width    float64
	height   float64

	minZoom, maxZoom float64

	version      uint64 // bumps on any state change
	viewportSeen uint64
	viewportVer  uint64
	matSeen      uint64

	projection     Affine
	view           Affine
	viewProjection Affine
	inverseVP      Affine
	cameraToCanvas Affine

	now             Clock
	anim            *landmarkAnim
	landmarks       map[string]Landmark
	defaultDuration time.Duration
}

// NewCamera creates a camera for a viewport of the given size at the canvas
// origin with zoom 1.
func NewCamera(width, height float64) *Camera {
	c := &Camera{
		zoom:            1,
		width:           width,
		height:          height,
		minZoom:         ZoomSteps[0],
		maxZoom:         ZoomSteps[len(ZoomSteps)-1],
		now:             time.Now,
		landmarks:       make(map[string]Landmark),
		defaultDuration: 300 * time.Millisecond,
	}
	c.touchViewport()
	return c
}

func (c *Camera) touch() { c.version = nextVersion() }

func (c *Camera) touchViewport() {
	c.viewportVer = nextVersion()
	c.version = c.viewportVer
}

// Version returns the stamp of the camera's last state change.
func (c *Camera) Version() uint64 { return c.version }

// --- State ---

// Position returns the canvas point at the viewport's top-left corner.
func (c *Camera) Position() (x, y float64) { return c.x, c.y }

// SetPosition moves the camera so (x, y) sits at the viewport's top-left.
func (c *Camera) SetPosition(x, y float64) {
	if c.x == x && c.y == y {
		return
	}
	c.x, c.y = x, y
	c.touch()
}

// Zoom returns the current zoom factor.
func (c *Camera) Zoom() float64 { return c.zoom }

// SetZoom sets the zoom factor, clamped to the zoom limits, keeping the
// camera position fixed. Use ZoomAt to keep a viewport point fixed instead.
func (c *Camera) SetZoom(z float64) {
	z = c.clampZoom(z)
	if z == c.zoom {
		return
	}
	c.zoom = z
	c.touch()
}

// Rotation returns the view rotation in radians.
func (c *Camera) Rotation() float64 { return c.rotation }

// SetRotation sets the view rotation in radians.
func (c *Camera) SetRotation(r float64) {
	if r == c.rotation {
		return
	}
	c.rotation = r
	c.touch()
}

// Viewport returns the viewport size in pixels.
func (c *Camera) Viewport() (width, height float64) { return c.width, c.height }

// SetViewport resizes the viewport. The camera position is unchanged, so
// content stays put relative to the top-left corner.
func (c *Camera) SetViewport(width, height float64) {
	if width == c.width && height == c.height {
		return
	}
	c.width, c.height = width, height
	c.touchViewport()
}

// SetZoomLimits sets the zoom clamp range and re-clamps the current zoom.
func (c *Camera) SetZoomLimits(min, max float64) {
	if min <= 0 || max < min {
		return
	}
	c.minZoom, c.maxZoom = min, max
	c.SetZoom(c.zoom)
}

// ZoomLimits returns the zoom clamp range.
func (c *Camera) ZoomLimits() (min, max float64) { return c.minZoom, c.maxZoom }

func (c *Camera) clampZoom(z float64) float64 {
	if math.IsNaN(z) || z <= 0 {
		return c.zoom
	}
	return math.Max(c.minZoom, math.Min(c.maxZoom, z))
}

// --- Matrices ---

func (c *Camera) update() {
	if c.viewportSeen != c.viewportVer {
		w, h := c.width, c.height
		if w <= 0 {
			w = 1
		}
		if h <= 0 {
			h = 1
		}
		// Pixels (y down) to clip space (y up).
		c.projection = Affine{2 / w, 0, 0, -2 / h, -1, 1}
		c.viewportSeen = c.viewportVer
	}
	if c.matSeen == c.version {
		return
	}
	c.cameraToCanvas = TranslateAffine(c.x, c.y).
		Mul(RotateAffine(c.rotation)).
		Mul(ScaleAffine(1/c.zoom, 1/c.zoom))
	c.view = c.cameraToCanvas.Invert()
	c.viewProjection = c.projection.Mul(c.view)
	c.inverseVP = c.viewProjection.Invert()
	c.matSeen = c.version
}

// Projection returns the viewport-pixels-to-clip-space matrix.
func (c *Camera) Projection() Affine { c.update(); return c.projection }

// View returns the canvas-to-viewport-pixels matrix.
func (c *Camera) View() Affine { c.update(); return c.view }

// ViewProjection returns the canvas-to-clip-space matrix.
func (c *Camera) ViewProjection() Affine { c.update(); return c.viewProjection }

// InverseViewProjection returns the clip-space-to-canvas matrix.
func (c *Camera) InverseViewProjection() Affine { c.update(); return c.inverseVP }

// ViewportToCanvas converts a viewport pixel position to canvas coordinates.
func (c *Camera) ViewportToCanvas(vx, vy float64) (x, y float64) {
	c.update()
	cx, cy := c.projection.Apply(vx, vy)
	return c.inverseVP.Apply(cx, cy)
}

// CanvasToViewport converts canvas coordinates to a viewport pixel position.
func (c *Camera) CanvasToViewport(x, y float64) (vx, vy float64) {
	c.update()
	cx, cy := c.viewProjection.Apply(x, y)
	return c.projection.Invert().Apply(cx, cy)
}

// PixelSize returns the canvas distance covered by one viewport pixel.
func (c *Camera) PixelSize() float64 { return 1 / c.zoom }

// VisibleBounds returns the canvas-space box covering the viewport.
func (c *Camera) VisibleBounds() AABB {
	c.update()
	b := NewAABB(0, 0, c.width, c.height)
	return b.Transformed(c.cameraToCanvas)
}

// --- Navigation ---

// ZoomAt sets the zoom while keeping the canvas point under the viewport
// anchor (ax, ay) fixed.
func (c *Camera) ZoomAt(z, ax, ay float64) {
	z = c.clampZoom(z)
	if z == c.zoom {
		return
	}
	bx, by := c.ViewportToCanvas(ax, ay)
	c.zoom = z
	c.touch()
	nx, ny := c.ViewportToCanvas(ax, ay)
	c.x += bx - nx
	c.y += by - ny
	c.touch()
}

// ZoomBy multiplies the zoom by factor around the viewport anchor.
func (c *Camera) ZoomBy(factor, ax, ay float64) {
	c.ZoomAt(c.zoom*factor, ax, ay)
}

// ZoomIn steps up the zoom ladder around the viewport anchor.
func (c *Camera) ZoomIn(ax, ay float64) {
	c.ZoomAt(NextZoomStep(c.zoom), ax, ay)
}

// ZoomOut steps down the zoom ladder around the viewport anchor.
func (c *Camera) ZoomOut(ax, ay float64) {
	c.ZoomAt(PrevZoomStep(c.zoom), ax, ay)
}

// PanBy scrolls the content by (dx, dy) viewport pixels.
func (c *Camera) PanBy(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	c.update()
	wx, wy := c.cameraToCanvas.ApplyLinear(dx, dy)
	c.x -= wx
	c.y -= wy
	c.touch()
}

// CenterOn moves the camera so the canvas point (x, y) is at the viewport
// center.
func (c *Camera) CenterOn(x, y float64) {
	c.x, c.y = c.positionFor(x, y, c.zoom, c.rotation)
	c.touch()
}

// positionFor returns the camera position that puts canvas point (x, y) at
// the viewport center for the given zoom and rotation.
func (c *Camera) positionFor(x, y, zoom, rotation float64) (float64, float64) {
	m := RotateAffine(rotation).Mul(ScaleAffine(1/zoom, 1/zoom))
	ox, oy := m.ApplyLinear(c.width/2, c.height/2)
	return x - ox, y - oy
}

// FitLandmark returns the landmark that frames box with padding pixels on
// every side at the current rotation.
func (c *Camera) FitLandmark(box AABB, padding float64) Landmark {
	if box.IsEmpty() {
		return c.Landmark()
	}
	w := math.Max(c.width-2*padding, 1)
	h := math.Max(c.height-2*padding, 1)
	z := c.zoom
	bw, bh := box.Width(), box.Height()
	switch {
	case bw > 0 && bh > 0:
		z = math.Min(w/bw, h/bh)
	case bw > 0:
		z = w / bw
	case bh > 0:
		z = h / bh
	}
	z = c.clampZoom(z)
	cx, cy := box.Center()
	x, y := c.positionFor(cx, cy, z, c.rotation)
	return Landmark{X: x, Y: y, Zoom: z, Rotation: c.rotation}
}

// ZoomToFit frames box immediately.
func (c *Camera) ZoomToFit(box AABB, padding float64) {
	c.apply(c.FitLandmark(box, padding))
}

// WheelZoom zooms around the viewport anchor by exp(-delta*speed), the
// smooth mapping used for trackpad pinches and ctrl+wheel.
func (c *Camera) WheelZoom(delta, speed, ax, ay float64) {
	c.ZoomBy(math.Exp(-delta*speed), ax, ay)
}
