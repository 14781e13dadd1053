package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagTool     = flag.String("tool", "", "Path to the external remesher executable")
	flagOut      = flag.String("out", "", "Output directory for exported assets")
	flagAuto     = flag.Bool("auto", false, "Auto-approve every model (no review prompt)")
	flagKeepTemp = flag.Bool("keep-temp", false, "Retain remesher temp files for debugging")
	flagIslands  = flag.Int("island-threshold", 0, "Island count that classifies a mesh as soup")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagTool != "" {
		cfg.Remesher.ToolPath = *flagTool
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	if *flagAuto {
		cfg.Review.AutoApprove = true
	}
	if *flagKeepTemp {
		cfg.Remesher.KeepTempFiles = true
	}
	if *flagIslands > 0 {
		cfg.Remesher.IslandThreshold = *flagIslands
	}
}
