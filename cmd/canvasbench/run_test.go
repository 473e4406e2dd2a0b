package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phanxgames/canvas"
)

func TestGenerateScene(t *testing.T) {
	root := generateScene(200, 7, false)
	if got := root.NumChildren(); got != 200 {
		t.Fatalf("NumChildren() = %d, want 200", got)
	}
	again := generateScene(200, 7, false)
	for i := range 200 {
		a, b := root.ChildAt(i), again.ChildAt(i)
		if a.Name != b.Name || a.Attributes().Fill != b.Attributes().Fill {
			t.Fatalf("child %d differs between runs with the same seed", i)
		}
	}
}

func TestGenerateSceneWithPaths(t *testing.T) {
	root := generateScene(70, 1, true)
	var meshes int
	for _, c := range root.Children() {
		if c.Kind() == canvas.KindPath || c.Kind() == canvas.KindPolyline {
			meshes++
		}
	}
	if meshes != 10 {
		t.Errorf("mesh shapes = %d, want 10", meshes)
	}
}

func TestRunBenchGenerated(t *testing.T) {
	var out bytes.Buffer
	opts := runOpts{frames: 5, width: 640, height: 480, shapes: 100, seed: 3, fit: true}
	if err := runBench(context.Background(), &out, "", &opts); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"frames          5", "draws/frame", "bytes uploaded"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunBenchSceneFile(t *testing.T) {
	data, err := canvas.MarshalJSON(generateScene(20, 1, false))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	file := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(file, data, 0o644); err != nil {
		t.Fatal(err)
	}
	script := filepath.Join(dir, "script.json")
	if err := os.WriteFile(script, []byte(`{"steps":[{"action":"click","x":10,"y":10},{"action":"wait","frames":2}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	opts := runOpts{frames: 8, width: 640, height: 480, script: script}
	if err := runBench(context.Background(), &out, file, &opts); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "nodes           22") {
		t.Errorf("expected root, generated group and 20 shapes:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "clicks") {
		t.Errorf("output missing click count:\n%s", out.String())
	}
}

func TestRunBenchRejectsZeroFrames(t *testing.T) {
	opts := runOpts{frames: 0}
	if err := runBench(context.Background(), &bytes.Buffer{}, "", &opts); err == nil {
		t.Error("expected error for zero frames")
	}
}
