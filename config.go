package canvas

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// DefaultEnvPrefix is the environment variable prefix LoadConfig uses when
// none is given, e.g. CANVAS_MAX_INSTANCES.
const DefaultEnvPrefix = "CANVAS"

// Config holds the tunables of a Scene and its renderer.
type Config struct {
	// MaxInstances caps the members of one instanced batch. Longer runs are
	// split into several batches.
	MaxInstances int `envconfig:"MAX_INSTANCES" toml:"max_instances"`
	// InstancingThreshold is the shortest run of same-technique shapes drawn
	// instanced. Shorter runs get one uniform-buffer draw per shape.
	InstancingThreshold int `envconfig:"INSTANCING_THRESHOLD" toml:"instancing_threshold"`
	// SpatialRebuildRatio is the fraction of changed leaves above which the
	// spatial index is rebuilt instead of patched.
	SpatialRebuildRatio float64 `envconfig:"SPATIAL_REBUILD_RATIO" toml:"spatial_rebuild_ratio"`
	// DragDistance is how far, in viewport pixels, the pointer must travel
	// before a drag can start.
	DragDistance float64 `envconfig:"DRAG_DISTANCE" toml:"drag_distance"`
	// DragDelay is how long the button must be held before a drag can start.
	DragDelay time.Duration `envconfig:"DRAG_DELAY" toml:"drag_delay"`
	// WheelZoomSpeed converts wheel delta into a zoom factor exponent.
	WheelZoomSpeed float64 `envconfig:"WHEEL_ZOOM_SPEED" toml:"wheel_zoom_speed"`
	MinZoom        float64 `envconfig:"MIN_ZOOM" toml:"min_zoom"`
	MaxZoom        float64 `envconfig:"MAX_ZOOM" toml:"max_zoom"`
	// FlattenTolerance is the maximum curve flattening error in local units.
	FlattenTolerance float64 `envconfig:"FLATTEN_TOLERANCE" toml:"flatten_tolerance"`
	// OpacityEpsilon is the alpha below which fragments are discarded.
	OpacityEpsilon float64 `envconfig:"OPACITY_EPSILON" toml:"opacity_epsilon"`
	// ShadowSamples is the number of Gaussian rows used for rounded shadows.
	ShadowSamples int `envconfig:"SHADOW_SAMPLES" toml:"shadow_samples"`
	// LandmarkDuration is the default animation length for landmarks.
	LandmarkDuration time.Duration `envconfig:"LANDMARK_DURATION" toml:"landmark_duration"`
	// Debug turns on per-frame statistics logging.
	Debug bool `envconfig:"DEBUG" toml:"debug"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		MaxInstances:        4096,
		InstancingThreshold: 2,
		SpatialRebuildRatio: 0.25,
		DragDistance:        4,
		DragDelay:           150 * time.Millisecond,
		WheelZoomSpeed:      0.0015,
		MinZoom:             0.02,
		MaxZoom:             4,
		FlattenTolerance:    DefaultFlattenTolerance,
		OpacityEpsilon:      1.0 / 255,
		ShadowSamples:       4,
		LandmarkDuration:    300 * time.Millisecond,
	}
}

// LoadConfig returns the defaults overridden by environment variables named
// prefix_FIELD. An empty prefix means DefaultEnvPrefix.
func LoadConfig(prefix string) (Config, error) {
	cfg := DefaultConfig()
	if err := applyEnv(prefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadConfigFile reads a TOML file over the defaults, then applies
// environment overrides.
func LoadConfigFile(path, prefix string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("canvas: load config %s: %w", path, err)
	}
	if err := applyEnv(prefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(prefix string, cfg *Config) error {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	if err := envconfig.Process(prefix, cfg); err != nil {
		return fmt.Errorf("canvas: config from environment: %w", err)
	}
	return nil
}

// Validate reports the first out-of-range field.
func (c Config) Validate() error {
	switch {
	case c.MaxInstances < 1:
		return fmt.Errorf("canvas: max_instances must be positive, got %d", c.MaxInstances)
	case c.InstancingThreshold < 1:
		return fmt.Errorf("canvas: instancing_threshold must be positive, got %d", c.InstancingThreshold)
	case c.MinZoom <= 0 || c.MaxZoom < c.MinZoom:
		return fmt.Errorf("canvas: invalid zoom range [%g, %g]", c.MinZoom, c.MaxZoom)
	case c.SpatialRebuildRatio < 0 || c.SpatialRebuildRatio > 1:
		return fmt.Errorf("canvas: spatial_rebuild_ratio must be in [0, 1], got %g", c.SpatialRebuildRatio)
	}
	return nil
}

// withDefaults replaces zero fields with their defaults so a partially
// filled Config is usable.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxInstances <= 0 {
		c.MaxInstances = d.MaxInstances
	}
	if c.InstancingThreshold <= 0 {
		c.InstancingThreshold = d.InstancingThreshold
	}
	if c.SpatialRebuildRatio <= 0 {
		c.SpatialRebuildRatio = d.SpatialRebuildRatio
	}
	if c.DragDistance <= 0 {
		c.DragDistance = d.DragDistance
	}
	if c.DragDelay <= 0 {
		c.DragDelay = d.DragDelay
	}
	if c.WheelZoomSpeed <= 0 {
		c.WheelZoomSpeed = d.WheelZoomSpeed
	}
	if c.MinZoom <= 0 {
		c.MinZoom = d.MinZoom
	}
	if c.MaxZoom <= 0 {
		c.MaxZoom = d.MaxZoom
	}
	if c.FlattenTolerance <= 0 {
		c.FlattenTolerance = d.FlattenTolerance
	}
	if c.OpacityEpsilon <= 0 {
		c.OpacityEpsilon = d.OpacityEpsilon
	}
	if c.ShadowSamples <= 0 {
		c.ShadowSamples = d.ShadowSamples
	}
	if c.LandmarkDuration < 0 {
		c.LandmarkDuration = 0
	}
	return c
}
