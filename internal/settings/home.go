package settings

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the songdeck home directory.
const HomeEnv = "SONGDECK_HOME"

// Home returns the songdeck home directory, creating it if needed.
// Priority order:
//  1. override (the --home flag), if non-empty
//  2. SONGDECK_HOME environment variable
//  3. ~/.songdeck
func Home(override string) (string, error) {
	home := override
	if home == "" {
		home = os.Getenv(HomeEnv)
	}
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locate user home: %w", err)
		}
		home = filepath.Join(userHome, ".songdeck")
	}

	abs, err := filepath.Abs(home)
	if err != nil {
		return "", fmt.Errorf("resolve songdeck home: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("create songdeck home directory: %w", err)
	}
	return abs, nil
}

// Path returns the settings file inside home.
func Path(home string) string {
	return filepath.Join(home, "settings.yaml")
}
