package config

import (
	"os"
	"path/filepath"
)

// Default returns the baseline configuration before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			ArtifactsDir: defaultDataPath("artifacts"),
			LogDir:       defaultDataPath("logs"),
		},
		RunIndex: RunIndex{
			Enabled: true,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}

func defaultDataPath(leaf string) string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && base != "" {
		return filepath.Join(base, "reelpipe", leaf)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("~", ".local", "share", "reelpipe", leaf)
	}
	return filepath.Join(home, ".local", "share", "reelpipe", leaf)
}
