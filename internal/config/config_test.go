package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test remesher defaults
	if cfg.Remesher.Timeout != 300*time.Second {
		t.Errorf("expected timeout 300s, got %v", cfg.Remesher.Timeout)
	}
	if cfg.Remesher.BatchTimeout != 600*time.Second {
		t.Errorf("expected batch timeout 600s, got %v", cfg.Remesher.BatchTimeout)
	}
	if cfg.Remesher.IslandThreshold != 50 {
		t.Errorf("expected island threshold 50, got %d", cfg.Remesher.IslandThreshold)
	}
	if cfg.Remesher.CreaseDegrees != 30 {
		t.Errorf("expected crease angle 30, got %f", cfg.Remesher.CreaseDegrees)
	}
	if cfg.Remesher.KeepTempFiles {
		t.Error("expected keep_temp_files to be false by default")
	}

	// Test cleanup defaults: every step enabled
	if !cfg.Cleanup.TrimUVLayers || !cfg.Cleanup.TrimColorLayers ||
		!cfg.Cleanup.RemoveShapeKeys || !cfg.Cleanup.TrimCustomAttrs {
		t.Error("expected all cleanup steps enabled by default")
	}

	// Test category defaults
	chars, ok := cfg.Categories["characters"]
	if !ok {
		t.Fatal("expected a 'characters' category")
	}
	if chars.LOD0Faces != 4000 || chars.LOD1Faces != 1500 || chars.LOD2Faces != 500 {
		t.Errorf("expected character LODs 4000/1500/500, got %d/%d/%d",
			chars.LOD0Faces, chars.LOD1Faces, chars.LOD2Faces)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "meshforge.yaml")

	yamlContent := `
remesher:
  tool_path: "/opt/instant-meshes/bin/instant-meshes"
  timeout: 120s
  island_threshold: 80
  deterministic: true

cleanup:
  remove_shape_keys: false

categories:
  props:
    lod0_faces: 3000
    lod1_faces: 1200
    lod2_faces: 400

output:
  dir: "build/assets"
  combined_glb: false

logging:
  level: "debug"
  log_file: "pipeline.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Remesher.ToolPath != "/opt/instant-meshes/bin/instant-meshes" {
		t.Errorf("unexpected tool path %s", cfg.Remesher.ToolPath)
	}
	if cfg.Remesher.Timeout != 120*time.Second {
		t.Errorf("expected timeout 120s, got %v", cfg.Remesher.Timeout)
	}
	if cfg.Remesher.IslandThreshold != 80 {
		t.Errorf("expected island threshold 80, got %d", cfg.Remesher.IslandThreshold)
	}
	if !cfg.Remesher.Deterministic {
		t.Error("expected deterministic to be true")
	}

	if cfg.Cleanup.RemoveShapeKeys {
		t.Error("expected remove_shape_keys to be false")
	}
	if !cfg.Cleanup.TrimUVLayers {
		t.Error("expected trim_uv_layers to stay at its default")
	}

	props := cfg.Categories["props"]
	if props.LOD0Faces != 3000 || props.LOD1Faces != 1200 || props.LOD2Faces != 400 {
		t.Errorf("expected props LODs 3000/1200/400, got %d/%d/%d",
			props.LOD0Faces, props.LOD1Faces, props.LOD2Faces)
	}

	if cfg.Output.Dir != "build/assets" {
		t.Errorf("expected output dir 'build/assets', got %s", cfg.Output.Dir)
	}
	if cfg.Output.CombinedGLB {
		t.Error("expected combined_glb to be false")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "pipeline.log" {
		t.Errorf("expected log file 'pipeline.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	// Create temporary config file with invalid YAML
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
remesher:
  island_threshold: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Try to load - should error
	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/meshforge.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Save current directory
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	// Create temp directory and change to it
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create meshforge.yaml in current directory
	configPath := filepath.Join(tmpDir, "meshforge.yaml")
	if err := os.WriteFile(configPath, []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Error("expected to find meshforge.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "tool flag",
			setup: func() {
				*flagTool = "/custom/bin/remesher"
			},
			verify: func(cfg *Config) {
				if cfg.Remesher.ToolPath != "/custom/bin/remesher" {
					t.Errorf("expected tool path /custom/bin/remesher, got %s", cfg.Remesher.ToolPath)
				}
			},
			teardown: func() {
				*flagTool = ""
			},
		},
		{
			name: "auto flag",
			setup: func() {
				*flagAuto = true
			},
			verify: func(cfg *Config) {
				if !cfg.Review.AutoApprove {
					t.Error("expected auto_approve with auto flag")
				}
			},
			teardown: func() {
				*flagAuto = false
			},
		},
		{
			name: "out flag",
			setup: func() {
				*flagOut = "dist"
			},
			verify: func(cfg *Config) {
				if cfg.Output.Dir != "dist" {
					t.Errorf("expected output dir 'dist', got %s", cfg.Output.Dir)
				}
			},
			teardown: func() {
				*flagOut = ""
			},
		},
		{
			name: "island threshold flag",
			setup: func() {
				*flagIslands = 75
			},
			verify: func(cfg *Config) {
				if cfg.Remesher.IslandThreshold != 75 {
					t.Errorf("expected island threshold 75, got %d", cfg.Remesher.IslandThreshold)
				}
			},
			teardown: func() {
				*flagIslands = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			tt.setup()
			defer tt.teardown()

			// Apply flags to default config
			cfg := Default()
			applyFlags(cfg)

			// Verify
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "meshforge.yaml")

	yamlContent := `
remesher:
  island_threshold: 60
output:
  dir: "from-file"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagIslands = 90
	defer func() {
		*flagConfig = ""
		*flagIslands = 0
	}()

	// Load config
	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Threshold should be from flag (90), not file (60)
	if cfg.Remesher.IslandThreshold != 90 {
		t.Errorf("expected island threshold 90 from flag, got %d", cfg.Remesher.IslandThreshold)
	}

	// Output dir should be from file since no flag override
	if cfg.Output.Dir != "from-file" {
		t.Errorf("expected output dir 'from-file' from file, got %s", cfg.Output.Dir)
	}
}
