package ebitenhost

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/canvas"
)

// maxPointers matches the canvas pointer table: 0 is the mouse, 1-9 touches.
const maxPointers = 10

// WheelPixels converts one wheel notch into scroll pixels, the unit
// canvas wheel deltas are expressed in.
var WheelPixels = 40.0

// Input samples ebiten's mouse, wheel and touch state.
type Input struct {
	samples   []canvas.PointerSample
	touchIDs  []ebiten.TouchID
	touchMap  [maxPointers]ebiten.TouchID
	touchUsed [maxPointers]bool
	last      [maxPointers]canvas.PointerSample
	seen      [maxPointers]bool
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() canvas.KeyModifiers {
	var mods canvas.KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= canvas.ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= canvas.ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= canvas.ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= canvas.ModMeta
	}
	return mods
}

// Poll returns the samples for this tick: one for the mouse when it moved,
// changed buttons or scrolled, and one per changed touch. Released touches
// produce a final sample with no buttons. The returned slice is reused by
// the next call.
func (in *Input) Poll() []canvas.PointerSample {
	in.samples = in.samples[:0]
	mods := readModifiers()
	in.pollMouse(mods)
	in.pollTouches(mods)
	return in.samples
}

func (in *Input) emit(s canvas.PointerSample) {
	id := s.PointerID
	if in.seen[id] && s == in.last[id] && s.DeltaX == 0 && s.DeltaY == 0 {
		return
	}
	in.seen[id] = true
	in.last[id] = s
	in.samples = append(in.samples, s)
}

func (in *Input) pollMouse(mods canvas.KeyModifiers) {
	mx, my := ebiten.CursorPosition()
	var buttons canvas.Buttons
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		buttons |= 1 << canvas.MouseButtonLeft
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		buttons |= 1 << canvas.MouseButtonRight
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle) {
		buttons |= 1 << canvas.MouseButtonMiddle
	}
	// Wheel up scrolls content down, the opposite sign of DOM wheel deltas.
	wx, wy := ebiten.Wheel()
	in.emit(canvas.PointerSample{
		PointerID: 0,
		ViewportX: float64(mx),
		ViewportY: float64(my),
		Buttons:   buttons,
		Modifiers: mods,
		DeltaX:    -wx * WheelPixels,
		DeltaY:    -wy * WheelPixels,
	})
}

func (in *Input) pollTouches(mods canvas.KeyModifiers) {
	in.touchIDs = ebiten.AppendTouchIDs(in.touchIDs[:0])

	var active [maxPointers]bool
	for _, tid := range in.touchIDs {
		slot := in.touchSlot(tid)
		if slot < 0 {
			continue
		}
		active[slot] = true
		tx, ty := ebiten.TouchPosition(tid)
		in.emit(canvas.PointerSample{
			PointerID: slot,
			ViewportX: float64(tx),
			ViewportY: float64(ty),
			Buttons:   1 << canvas.MouseButtonLeft,
			Modifiers: mods,
		})
	}

	// Release any touch slots that are no longer active.
	for i := 1; i < maxPointers; i++ {
		if in.touchUsed[i] && !active[i] {
			up := in.last[i]
			up.Buttons = 0
			up.Modifiers = mods
			in.emit(up)
			in.touchUsed[i] = false
			in.touchMap[i] = 0
		}
	}
}

// touchSlot maps an ebiten.TouchID to a pointer slot (1-9).
// Returns the existing slot or allocates a new one. Returns -1 if full.
func (in *Input) touchSlot(tid ebiten.TouchID) int {
	for i := 1; i < maxPointers; i++ {
		if in.touchUsed[i] && in.touchMap[i] == tid {
			return i
		}
	}
	for i := 1; i < maxPointers; i++ {
		if !in.touchUsed[i] {
			in.touchUsed[i] = true
			in.touchMap[i] = tid
			in.seen[i] = false
			return i
		}
	}
	return -1
}
