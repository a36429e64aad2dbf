// Package config handles meshtool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Decode  DecodeConfig  `yaml:"decode"`
	Convert ConvertConfig `yaml:"convert"`
	Logging LoggingConfig `yaml:"logging"`
}

// DecodeConfig bounds what the tool is willing to read. The engine itself
// has no size limits; callers impose them before handing bytes over.
type DecodeConfig struct {
	MaxInputSizeMB int `yaml:"max_input_size_mb"`
}

// ConvertConfig holds conversion defaults.
type ConvertConfig struct {
	Target string `yaml:"target"` // "ply" or "obj"
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Decode: DecodeConfig{
			MaxInputSizeMB: 256,
		},
		Convert: ConvertConfig{
			Target: "ply",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
