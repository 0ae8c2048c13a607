package tui

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultLogFile is the log_file setting that selects the per-user log location
const DefaultLogFile = "default"

const logFileEnv = "REBASER_LOG_FILE"

// LogFilePath turns a log_file setting into the path the debug log is written to.
//
// An empty setting defers to REBASER_LOG_FILE; with neither set there is no log file
// and the result is empty. DefaultLogFile means REBASER_LOG_FILE when set, else
// ~/.rebaser/logs/rebaser.log. Any other setting is a path, with a leading ~/
// expanded to the home directory.
func LogFilePath(setting string) string {
	switch {
	case setting == "":
		return os.Getenv(logFileEnv)
	case setting == DefaultLogFile:
		if env := os.Getenv(logFileEnv); env != "" {
			return env
		}
		return inHome(filepath.Join(".rebaser", "logs", "rebaser.log"))
	case strings.HasPrefix(setting, "~/"):
		return inHome(strings.TrimPrefix(setting, "~/"))
	default:
		return setting
	}
}

// inHome joins rel onto the home directory, or the temp directory without one
func inHome(rel string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), filepath.Base(rel))
	}
	return filepath.Join(home, rel)
}
