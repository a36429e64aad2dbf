package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagMaxSize = flag.Int("max-size", 0, "Max input file size in MB")
	flagTarget  = flag.String("target", "", "Default convert target format (ply or obj)")
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
	if *flagMaxSize > 0 {
		cfg.Decode.MaxInputSizeMB = *flagMaxSize
	}
	if *flagTarget != "" {
		cfg.Convert.Target = *flagTarget
	}
}
