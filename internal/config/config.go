// Package config handles pipeline configuration loading and management.
package config

import "time"

// Config holds all pipeline settings.
type Config struct {
	Remesher   RemesherConfig      `yaml:"remesher"`
	Cleanup    CleanupConfig       `yaml:"cleanup"`
	Categories map[string]Category `yaml:"categories"`
	Output     OutputConfig        `yaml:"output"`
	Review     ReviewConfig        `yaml:"review"`
	Logging    LoggingConfig       `yaml:"logging"`
}

// RemesherConfig holds external and built-in remesher settings.
type RemesherConfig struct {
	ToolPath         string        `yaml:"tool_path"` // empty = probe default install locations
	Timeout          time.Duration `yaml:"timeout"`
	BatchTimeout     time.Duration `yaml:"batch_timeout"`
	CreaseDegrees    float64       `yaml:"crease_degrees"`
	SmoothIterations int           `yaml:"smooth_iterations"`
	Deterministic    bool          `yaml:"deterministic"`
	KeepTempFiles    bool          `yaml:"keep_temp_files"`
	IslandThreshold  int           `yaml:"island_threshold"`
	WeldEpsilon      float32       `yaml:"weld_epsilon"`
}

// CleanupConfig toggles the attribute-budget cleanup steps.
type CleanupConfig struct {
	TrimUVLayers    bool `yaml:"trim_uv_layers"`
	TrimColorLayers bool `yaml:"trim_color_layers"`
	RemoveShapeKeys bool `yaml:"remove_shape_keys"`
	TrimCustomAttrs bool `yaml:"trim_custom_attrs"`
}

// Category maps an asset category to its LOD face targets and an
// optional cleanup override.
type Category struct {
	LOD0Faces int            `yaml:"lod0_faces"`
	LOD1Faces int            `yaml:"lod1_faces"`
	LOD2Faces int            `yaml:"lod2_faces"`
	Cleanup   *CleanupConfig `yaml:"cleanup,omitempty"`
}

// OutputConfig holds export destination settings.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	CombinedGLB bool   `yaml:"combined_glb"` // also write <name>_all_lods.glb
}

// ReviewConfig holds review collaborator settings.
type ReviewConfig struct {
	AutoApprove bool `yaml:"auto_approve"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Remesher: RemesherConfig{
			Timeout:          300 * time.Second,
			BatchTimeout:     600 * time.Second,
			CreaseDegrees:    30,
			SmoothIterations: 2,
			Deterministic:    false,
			KeepTempFiles:    false,
			IslandThreshold:  50,
			WeldEpsilon:      0.0001,
		},
		Cleanup: CleanupConfig{
			TrimUVLayers:    true,
			TrimColorLayers: true,
			RemoveShapeKeys: true,
			TrimCustomAttrs: true,
		},
		Categories: map[string]Category{
			"characters": {LOD0Faces: 4000, LOD1Faces: 1500, LOD2Faces: 500},
			"enemies":    {LOD0Faces: 4000, LOD1Faces: 1500, LOD2Faces: 500},
			"props":      {LOD0Faces: 2000, LOD1Faces: 800, LOD2Faces: 300},
			"weapons":    {LOD0Faces: 1500, LOD1Faces: 600, LOD2Faces: 250},
		},
		Output: OutputConfig{
			Dir:         "retopo_output",
			CombinedGLB: true,
		},
		Review: ReviewConfig{
			AutoApprove: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// CategoryOrDefault returns the named category's settings, falling
// back to the character targets for unknown categories.
func (c *Config) CategoryOrDefault(name string) Category {
	if cat, ok := c.Categories[name]; ok {
		return cat
	}
	return Category{LOD0Faces: 4000, LOD1Faces: 1500, LOD2Faces: 500}
}
