package canvas

import (
	"strings"
	"testing"
	"time"
)

func TestLoadScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"invalid json", `{"steps": [`, "parse input script"},
		{"no steps", `{"steps": []}`, "no steps"},
		{"unknown action", `{"steps": [{"action": "teleport"}]}`, `unknown action "teleport"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScript([]byte(tt.json))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestScriptRunnerClick(t *testing.T) {
	s, clk, c := inputScene(t)
	clicks := 0
	c.On(EventClick, func(*Event) { clicks++ })

	r, err := LoadScript([]byte(`{"steps": [{"action": "click", "x": 100, "y": 100}]}`))
	if err != nil {
		t.Fatal(err)
	}
	s.SetScriptRunner(r)
	for i := 0; i < 10 && !r.Done(); i++ {
		stepFrames(s, clk, 1, 16*time.Millisecond)
	}
	if !r.Done() {
		t.Fatal("script did not finish")
	}
	if clicks != 1 {
		t.Errorf("clicks = %d, want 1", clicks)
	}
}

func TestScriptRunnerDragAndWait(t *testing.T) {
	s, clk, c := inputScene(t)
	var order []string
	c.On(EventDragEnd, func(*Event) { order = append(order, "dragend") })
	c.On(EventClick, func(*Event) { order = append(order, "click") })

	r, err := LoadScript([]byte(`{"steps": [
		{"action": "drag", "fromX": 100, "fromY": 100, "toX": 120, "toY": 100, "frames": 6},
		{"action": "wait", "frames": 3},
		{"action": "click", "x": 100, "y": 100}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	s.SetScriptRunner(r)
	frames := 0
	for ; frames < 50 && !r.Done(); frames++ {
		stepFrames(s, clk, 1, 50*time.Millisecond)
	}
	if !r.Done() {
		t.Fatal("script did not finish")
	}
	if strings.Join(order, " ") != "dragend click" {
		t.Errorf("order = %v", order)
	}
	// 1 drag step + 5 frames draining + 3 wait + 1 click + 1 draining + 1 done.
	if frames < 12 {
		t.Errorf("script finished in %d frames, too fast for the wait", frames)
	}
}

func TestScriptRunnerLandmarks(t *testing.T) {
	s, clk := newTestScene(t)
	s.Camera().SetPosition(300, 300)
	s.Camera().SaveLandmark("saved")
	s.Camera().SetPosition(0, 0)

	r, err := LoadScript([]byte(`{"steps": [
		{"action": "landmark", "x": 50, "y": 60, "zoom": 2, "durationMs": 100},
		{"action": "landmark", "name": "saved"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	s.SetScriptRunner(r)
	stepFrames(s, clk, 1, 16*time.Millisecond)
	if !s.Camera().Animating() {
		t.Fatal("first landmark should animate")
	}
	stepFrames(s, clk, 1, 50*time.Millisecond)
	if x, _ := s.Camera().Position(); x <= 0 || x >= 50 {
		t.Errorf("mid-transition X = %v, want between 0 and 50", x)
	}
	if r.Done() {
		t.Fatal("script advanced while the camera was animating")
	}
	for i := 0; i < 5 && !r.Done(); i++ {
		stepFrames(s, clk, 1, 16*time.Millisecond)
	}
	if !r.Done() {
		t.Fatal("script did not finish")
	}
	if x, y := s.Camera().Position(); !approxEqual(x, 300, epsilon) || !approxEqual(y, 300, epsilon) {
		t.Errorf("Position = (%v, %v), want the saved landmark", x, y)
	}
}

func TestScriptRunnerUnknownLandmarkSkipped(t *testing.T) {
	s, clk := newTestScene(t)
	r, err := LoadScript([]byte(`{"steps": [{"action": "landmark", "name": "nowhere"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	s.SetScriptRunner(r)
	stepFrames(s, clk, 2, 16*time.Millisecond)
	if !r.Done() {
		t.Error("unknown landmark should be skipped")
	}
}

func TestScriptRunnerWheel(t *testing.T) {
	s, clk := newTestScene(t)
	r, err := LoadScript([]byte(`{"steps": [{"action": "wheel", "x": 400, "y": 300, "deltaY": -100, "ctrl": true}]}`))
	if err != nil {
		t.Fatal(err)
	}
	s.SetScriptRunner(r)
	stepFrames(s, clk, 3, 16*time.Millisecond)
	if s.Camera().Zoom() <= 1 {
		t.Errorf("Zoom = %v, want > 1", s.Camera().Zoom())
	}
}
