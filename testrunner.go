package canvas

import (
	"encoding/json"
	"fmt"
	"time"
)

// scriptStep is one scripted action. Fields unused by an action are ignored.
type scriptStep struct {
	Action string `json:"action"`

	// click, hover, wheel, landmark
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	// drag
	FromX float64 `json:"fromX,omitempty"`
	FromY float64 `json:"fromY,omitempty"`
	ToX   float64 `json:"toX,omitempty"`
	ToY   float64 `json:"toY,omitempty"`

	// drag, wait
	Frames int `json:"frames,omitempty"`

	// wheel
	DeltaX float64 `json:"deltaX,omitempty"`
	DeltaY float64 `json:"deltaY,omitempty"`
	Ctrl   bool    `json:"ctrl,omitempty"`

	// landmark
	Name     string  `json:"name,omitempty"`
	Zoom     float64 `json:"zoom,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`
	Duration int     `json:"durationMs,omitempty"`
}

type script struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptRunner sequences injected input and camera moves across frames for
// automated runs. Attach to a Scene via SetScriptRunner.
//
// Supported actions: "click" (x, y), "hover" (x, y), "drag" (fromX, fromY,
// toX, toY, frames), "wheel" (x, y, deltaX, deltaY, ctrl), "landmark"
// (name, or x, y, zoom, rotation; durationMs) and "wait" (frames).
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a JSON input script and returns a ScriptRunner ready to
// be attached to a Scene via SetScriptRunner.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var sc script
	if err := json.Unmarshal(jsonData, &sc); err != nil {
		return nil, fmt.Errorf("parse input script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("parse input script: no steps")
	}
	for i, st := range sc.Steps {
		switch st.Action {
		case "click", "hover", "drag", "wheel", "landmark", "wait":
		default:
			return nil, fmt.Errorf("parse input script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: sc.Steps}, nil
}

// SetScriptRunner attaches a ScriptRunner to the scene. The runner advances
// once per Update, before queued input is processed. Pass nil to detach.
func (s *Scene) SetScriptRunner(runner *ScriptRunner) {
	s.script = runner
	if runner != nil {
		s.RequestFrame()
	}
}

// Done reports whether all steps in the script have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// step runs at most one action per frame, from Scene.Update.
func (r *ScriptRunner) step(s *Scene) {
	if r.done {
		return
	}
	if r.busy(s) {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "click":
		s.InjectClick(st.X, st.Y)
	case "hover":
		s.InjectHover(st.X, st.Y)
	case "drag":
		s.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, st.Frames)
	case "wheel":
		var mods KeyModifiers
		if st.Ctrl {
			mods |= ModCtrl
		}
		s.InjectWheel(st.X, st.Y, st.DeltaX, st.DeltaY, mods)
	case "landmark":
		opts := LandmarkOptions{Duration: time.Duration(st.Duration) * time.Millisecond}
		if st.Name != "" {
			if l, ok := s.camera.NamedLandmark(st.Name); ok {
				s.camera.GotoLandmark(l, opts)
			} else {
				Logger().Warn("canvas: script references unknown landmark", "name", st.Name)
			}
			break
		}
		zoom := st.Zoom
		if zoom == 0 {
			zoom = s.camera.Zoom()
		}
		s.camera.GotoLandmark(Landmark{X: st.X, Y: st.Y, Zoom: zoom, Rotation: st.Rotation}, opts)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1
		}
	}
	if r.cursor >= len(r.steps) && r.waitCount == 0 && !r.busy(s) {
		r.done = true
	}
}

// busy reports whether injected input or a camera move from an earlier step
// is still playing out.
func (r *ScriptRunner) busy(s *Scene) bool {
	return len(s.injectQueue) > 0 || s.camera.Animating()
}
