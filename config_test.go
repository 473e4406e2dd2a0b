package canvas

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("CANVAS_MAX_INSTANCES", "128")
	t.Setenv("CANVAS_DRAG_DELAY", "250ms")
	t.Setenv("CANVAS_DEBUG", "true")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxInstances != 128 {
		t.Errorf("MaxInstances = %d, want 128", cfg.MaxInstances)
	}
	if cfg.DragDelay != 250*time.Millisecond {
		t.Errorf("DragDelay = %v, want 250ms", cfg.DragDelay)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.InstancingThreshold != DefaultConfig().InstancingThreshold {
		t.Errorf("unset fields should keep defaults, InstancingThreshold = %d", cfg.InstancingThreshold)
	}
}

func TestLoadConfigPrefix(t *testing.T) {
	t.Setenv("CANVAS_MAX_ZOOM", "9")
	t.Setenv("APP_MAX_ZOOM", "8")
	cfg, err := LoadConfig("APP")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxZoom != 8 {
		t.Errorf("MaxZoom = %v, want 8", cfg.MaxZoom)
	}
}

func TestLoadConfigEnvErrors(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unparsable", "CANVAS_MAX_INSTANCES", "many"},
		{"out of range", "CANVAS_MAX_INSTANCES", "0"},
		{"zoom range", "CANVAS_MIN_ZOOM", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadConfig(""); err == nil {
				t.Errorf("%s=%s: want error", tt.key, tt.value)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.toml")
	data := `
max_instances = 512
spatial_rebuild_ratio = 0.5
landmark_duration = "1s"
shadow_samples = 8
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CANVAS_SHADOW_SAMPLES", "16")

	cfg, err := LoadConfigFile(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxInstances != 512 || cfg.SpatialRebuildRatio != 0.5 || cfg.LandmarkDuration != time.Second {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.ShadowSamples != 16 {
		t.Errorf("ShadowSamples = %d, want the environment's 16", cfg.ShadowSamples)
	}
	if cfg.DragDistance != DefaultConfig().DragDistance {
		t.Errorf("DragDistance = %v, want the default", cfg.DragDistance)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadConfigFile(filepath.Join(dir, "missing.toml"), ""); err == nil {
		t.Error("missing file: want error")
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("spatial_rebuild_ratio = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadConfigFile(bad, "")
	if err == nil || !strings.Contains(err.Error(), "spatial_rebuild_ratio") {
		t.Errorf("LoadConfigFile = %v, want a rebuild ratio error", err)
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{MaxInstances: 10, LandmarkDuration: -time.Second}.withDefaults()
	d := DefaultConfig()
	if cfg.MaxInstances != 10 {
		t.Errorf("MaxInstances = %d, want 10", cfg.MaxInstances)
	}
	if cfg.InstancingThreshold != d.InstancingThreshold || cfg.ShadowSamples != d.ShadowSamples || cfg.MaxZoom != d.MaxZoom {
		t.Errorf("zero fields not defaulted: %+v", cfg)
	}
	if cfg.LandmarkDuration != 0 {
		t.Errorf("LandmarkDuration = %v, want 0", cfg.LandmarkDuration)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate = %v", err)
	}
}
