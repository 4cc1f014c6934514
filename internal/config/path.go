package config

import (
	"os"
	"path/filepath"
	"strings"
)

// memoryDB is the SQLite name for a private in-memory database.
const memoryDB = ":memory:"

// ExpandPath substitutes $VAR references and a leading ~ in path.
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

func expandDBPath(path string) string {
	if path == memoryDB {
		return path
	}
	return ExpandPath(path)
}
