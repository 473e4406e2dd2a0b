package canvas

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Landmark is a target camera state. X and Y are the canvas point at the
// viewport's top-left corner, as in Camera.Position.
type Landmark struct {
	X, Y     float64
	Zoom     float64
	Rotation float64
	// Anchor, when set, is a viewport point whose canvas position moves in a
	// straight line during the animation while zoom and rotation change.
	// Zooming to a landmark built by ZoomAt with the same anchor keeps the
	// anchored content still on screen.
	Anchor *Vec2
}

// LandmarkOptions controls an animated transition.
type LandmarkOptions struct {
	// Duration of the transition. Zero applies the target immediately.
	Duration time.Duration
	// Easing shapes position progress. Defaults to ease.InOutQuad.
	Easing ease.TweenFunc
	// ZoomEasing shapes zoom and rotation progress. Defaults to Easing.
	ZoomEasing ease.TweenFunc
	// OnFinish runs once when the camera reaches the target. It does not run
	// for cancelled transitions.
	OnFinish func()
}

// landmarkAnim is one in-flight transition. Progress runs from 0 to 1 on two
// tweens so position and zoom/rotation can ease independently; values are
// interpolated in float64 from the captured start state.
type landmarkAnim struct {
	from, to Landmark
	start    time.Time
	pos      *gween.Tween
	zoomRot  *gween.Tween
	// Canvas positions of the anchor at the start and end states.
	anchorFrom, anchorTo Vec2
	onFinish             func()
}

// Landmark returns the camera's current state as a landmark.
func (c *Camera) Landmark() Landmark {
	return Landmark{X: c.x, Y: c.y, Zoom: c.zoom, Rotation: c.rotation}
}

// SetClock replaces the clock used to time transitions.
func (c *Camera) SetClock(now Clock) {
	if now != nil {
		c.now = now
	}
}

// SetDefaultLandmarkDuration sets the duration GotoNamedLandmark uses.
func (c *Camera) SetDefaultLandmarkDuration(d time.Duration) {
	if d >= 0 {
		c.defaultDuration = d
	}
}

// GotoLandmark starts a transition to l, replacing any transition in
// flight. With a zero duration the target is applied before returning.
func (c *Camera) GotoLandmark(l Landmark, opts LandmarkOptions) {
	c.anim = nil
	if l.Zoom <= 0 {
		l.Zoom = c.zoom
	}
	l.Zoom = c.clampZoom(l.Zoom)
	if opts.Duration <= 0 {
		c.apply(l)
		if opts.OnFinish != nil {
			opts.OnFinish()
		}
		return
	}
	easing := opts.Easing
	if easing == nil {
		easing = ease.InOutQuad
	}
	zoomEasing := opts.ZoomEasing
	if zoomEasing == nil {
		zoomEasing = easing
	}
	d := float32(opts.Duration.Seconds())
	a := &landmarkAnim{
		from:     c.Landmark(),
		to:       l,
		start:    c.now(),
		pos:      gween.New(0, 1, d, easing),
		zoomRot:  gween.New(0, 1, d, zoomEasing),
		onFinish: opts.OnFinish,
	}
	if l.Anchor != nil {
		a.anchorFrom = stateToCanvas(a.from, *l.Anchor)
		a.anchorTo = stateToCanvas(l, *l.Anchor)
	}
	c.anim = a
}

// Animating reports whether a transition is in flight.
func (c *Camera) Animating() bool { return c.anim != nil }

// CancelLandmark stops the transition in flight, leaving the camera where
// the last tick put it.
func (c *Camera) CancelLandmark() { c.anim = nil }

// SaveLandmark stores the current camera state under name.
func (c *Camera) SaveLandmark(name string) {
	c.landmarks[name] = c.Landmark()
}

// NamedLandmark returns a saved landmark.
func (c *Camera) NamedLandmark(name string) (Landmark, bool) {
	l, ok := c.landmarks[name]
	return l, ok
}

// GotoNamedLandmark animates to a saved landmark with the default duration.
// Returns false if no landmark has that name.
func (c *Camera) GotoNamedLandmark(name string, easing ease.TweenFunc) bool {
	l, ok := c.landmarks[name]
	if !ok {
		return false
	}
	c.GotoLandmark(l, LandmarkOptions{Duration: c.defaultDuration, Easing: easing})
	return true
}

// Tick advances the transition in flight to now. Scene.Update calls it once
// per frame.
func (c *Camera) Tick(now time.Time) {
	a := c.anim
	if a == nil {
		return
	}
	t := float32(now.Sub(a.start).Seconds())
	if t < 0 {
		t = 0
	}
	p, posDone := a.pos.Set(t)
	q, zoomDone := a.zoomRot.Set(t)
	if posDone && zoomDone {
		c.anim = nil
		c.apply(a.to)
		if a.onFinish != nil {
			a.onFinish()
		}
		return
	}
	s := Landmark{
		Zoom:     lerp(a.from.Zoom, a.to.Zoom, float64(q)),
		Rotation: lerp(a.from.Rotation, a.to.Rotation, float64(q)),
	}
	if a.to.Anchor != nil {
		// Place the camera so the anchor shows the interpolated canvas point.
		target := Vec2{
			X: lerp(a.anchorFrom.X, a.anchorTo.X, float64(p)),
			Y: lerp(a.anchorFrom.Y, a.anchorTo.Y, float64(p)),
		}
		off := stateToCanvas(s, *a.to.Anchor)
		s.X, s.Y = target.X-off.X, target.Y-off.Y
	} else {
		s.X = lerp(a.from.X, a.to.X, float64(p))
		s.Y = lerp(a.from.Y, a.to.Y, float64(p))
	}
	c.apply(s)
}

// apply sets the full camera state at once.
func (c *Camera) apply(l Landmark) {
	z := c.clampZoom(l.Zoom)
	if c.x == l.X && c.y == l.Y && c.zoom == z && c.rotation == l.Rotation {
		return
	}
	c.x, c.y, c.zoom, c.rotation = l.X, l.Y, z, l.Rotation
	c.touch()
}

// stateToCanvas maps viewport point v through the camera state l.
func stateToCanvas(l Landmark, v Vec2) Vec2 {
	m := TranslateAffine(l.X, l.Y).Mul(RotateAffine(l.Rotation)).Mul(ScaleAffine(1/l.Zoom, 1/l.Zoom))
	return m.ApplyVec(v)
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
