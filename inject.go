package canvas

import "time"

// InjectSample queues a synthetic pointer sample. Update feeds one queued
// sample per frame through HandlePointer once the tree is refreshed, the
// same path host input takes.
func (s *Scene) InjectSample(p PointerSample) {
	s.injectQueue = append(s.injectQueue, p)
	s.RequestFrame()
}

func leftDown(x, y float64) PointerSample {
	return PointerSample{ViewportX: x, ViewportY: y, Buttons: 1 << MouseButtonLeft}
}

// InjectPress queues a primary button press at viewport (x, y).
func (s *Scene) InjectPress(x, y float64) { s.InjectSample(leftDown(x, y)) }

// InjectMove queues a move with the primary button held, as between
// InjectPress and InjectRelease.
func (s *Scene) InjectMove(x, y float64) { s.InjectSample(leftDown(x, y)) }

// InjectHover queues a move with no button held.
func (s *Scene) InjectHover(x, y float64) {
	s.InjectSample(PointerSample{ViewportX: x, ViewportY: y})
}

// InjectRelease queues a sample with every button up at viewport (x, y).
func (s *Scene) InjectRelease(x, y float64) { s.InjectHover(x, y) }

// InjectClick queues a press and a release at one point; it takes two frames.
func (s *Scene) InjectClick(x, y float64) {
	s.InjectPress(x, y)
	s.InjectRelease(x, y)
}

// InjectDrag spreads a press at from, evenly spaced moves and a release at
// to over frames samples (at least 2). A drag only starts if the frames
// cover DragDelay.
func (s *Scene) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	frames = max(frames, 2)
	s.InjectPress(fromX, fromY)
	for i := 1; i < frames-1; i++ {
		f := float64(i) / float64(frames-1)
		s.InjectMove(fromX+f*(toX-fromX), fromY+f*(toY-fromY))
	}
	s.InjectRelease(toX, toY)
}

// InjectWheel queues a wheel sample at viewport (x, y).
func (s *Scene) InjectWheel(x, y, dx, dy float64, mods KeyModifiers) {
	s.InjectSample(PointerSample{ViewportX: x, ViewportY: y, DeltaX: dx, DeltaY: dy, Modifiers: mods})
}

// PendingInput returns the number of queued synthetic samples.
func (s *Scene) PendingInput() int { return len(s.injectQueue) }

// processInjected hands the oldest queued sample to the pointer state
// machine, reporting whether there was one.
func (s *Scene) processInjected(now time.Time) bool {
	if len(s.injectQueue) == 0 {
		return false
	}
	p := s.injectQueue[0]
	n := copy(s.injectQueue, s.injectQueue[1:])
	s.injectQueue = s.injectQueue[:n]
	s.HandlePointer(p, now)
	return true
}
