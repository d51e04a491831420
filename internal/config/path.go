// Package config provides configuration helpers shared by the commands.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves ~ and $VAR references in a configured file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	switch {
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
