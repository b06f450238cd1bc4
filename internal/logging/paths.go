package logging

import (
	"os"
	"path/filepath"

	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
)

// LogFileName is the name of the active log file.
const LogFileName = "searchmark.log"

// DefaultLogDir returns ~/.searchmark/logs, or a directory under the temp
// dir when the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".searchmark", "logs")
	}
	return filepath.Join(home, ".searchmark", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), LogFileName)
}

// FindLogFile resolves the log file to view. An explicit path wins, then
// configured, then the default location.
func FindLogFile(explicit, configured string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", smerrors.New(smerrors.ErrCodeFileNotFound, "log file not found", err).
				WithDetail("path", explicit)
		}
		return explicit, nil
	}

	checked := configured
	if checked == "" {
		checked = DefaultLogPath()
	}
	if _, err := os.Stat(checked); err != nil {
		return "", smerrors.New(smerrors.ErrCodeFileNotFound, "no log file found", err).
			WithDetail("path", checked).
			WithSuggestion("Run a command first, e.g. 'searchmark --debug batch -q go results.json'")
	}
	return checked, nil
}
