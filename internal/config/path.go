package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves $VARS and a leading ~ in path. Unresolvable parts are
// left as written.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
