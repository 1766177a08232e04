// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Graphics   GraphicsConfig   `yaml:"graphics"`
	Navigation NavigationConfig `yaml:"navigation"`
	LOD        LODConfig        `yaml:"lod"`
	Index      IndexConfig      `yaml:"index"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	PointSize  float32 `yaml:"point_size"`
}

// NavigationConfig holds movement and collision settings.
type NavigationConfig struct {
	BaseSpeed        float32 `yaml:"base_speed"` // units/sec, clamped to [0.5, 10]
	SprintMultiplier float32 `yaml:"sprint_multiplier"`
	CollisionRadius  float32 `yaml:"collision_radius"`
	Acceleration     float32 `yaml:"acceleration"`
	Deceleration     float32 `yaml:"deceleration"`
	MouseSensitivity float32 `yaml:"mouse_sensitivity"`
}

// LODConfig selects the device point budget tier.
type LODConfig struct {
	Tier string `yaml:"tier"` // low, medium or high
	Seed int64  `yaml:"seed"` // 0 means time-seeded decimation
}

// IndexConfig holds spatial index build parameters.
type IndexConfig struct {
	MaxPointsPerLeaf int `yaml:"max_points_per_leaf"`
	MaxDepth         int `yaml:"max_depth"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			PointSize:  2,
		},
		Navigation: NavigationConfig{
			BaseSpeed:        4,
			SprintMultiplier: 2,
			CollisionRadius:  0.5,
			Acceleration:     4,
			Deceleration:     6,
			MouseSensitivity: 0.0025,
		},
		LOD: LODConfig{
			Tier: "medium",
			Seed: 0,
		},
		Index: IndexConfig{
			MaxPointsPerLeaf: 64,
			MaxDepth:         10,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Normalize clamps values to their supported ranges.
func (c *Config) Normalize() {
	if c.Navigation.BaseSpeed < 0.5 {
		c.Navigation.BaseSpeed = 0.5
	}
	if c.Navigation.BaseSpeed > 10 {
		c.Navigation.BaseSpeed = 10
	}
	if c.Navigation.CollisionRadius <= 0 {
		c.Navigation.CollisionRadius = Default().Navigation.CollisionRadius
	}
	if c.Index.MaxPointsPerLeaf < 1 {
		c.Index.MaxPointsPerLeaf = Default().Index.MaxPointsPerLeaf
	}
	if c.Index.MaxDepth < 1 {
		c.Index.MaxDepth = Default().Index.MaxDepth
	}
}
