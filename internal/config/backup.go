package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
)

const (
	// MaxBackups is the maximum number of config backups to keep
	MaxBackups = 3

	// BackupSuffix is the file extension for backup files
	BackupSuffix = ".bak"

	backupTimeFormat = "20060102-150405"
)

// BackupUserConfig creates a timestamped backup of the user config file.
// If no user config exists, returns empty string and nil error.
func BackupUserConfig() (string, error) {
	return BackupFile(GetUserConfigPath(), time.Now())
}

// BackupFile copies path to path.bak.<timestamp> and prunes old backups
// beyond MaxBackups. A missing path is not an error.
func BackupFile(path string, now time.Time) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", smerrors.New(smerrors.ErrCodeConfigPermission, "failed to read config for backup", err).
			WithDetail("path", path)
	}

	backupPath := path + BackupSuffix + "." + now.Format(backupTimeFormat)
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", smerrors.New(smerrors.ErrCodeConfigPermission, "failed to write backup", err).
			WithDetail("path", backupPath)
	}

	// Pruning is best effort; the backup itself succeeded.
	_ = pruneBackups(path)

	return backupPath, nil
}

// ListBackups returns the backups of path, newest first. Timestamps in the
// file names sort chronologically.
func ListBackups(path string) ([]string, error) {
	dir := filepath.Dir(path)
	prefix := filepath.Base(path) + BackupSuffix + "."

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, smerrors.New(smerrors.ErrCodeConfigPermission, "failed to list config directory", err)
	}

	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	return backups, nil
}

// ListUserConfigBackups returns the user config backups, newest first.
func ListUserConfigBackups() ([]string, error) {
	return ListBackups(GetUserConfigPath())
}

func pruneBackups(path string) error {
	backups, err := ListBackups(path)
	if err != nil || len(backups) <= MaxBackups {
		return err
	}
	for _, b := range backups[MaxBackups:] {
		_ = os.Remove(b)
	}
	return nil
}

// RestoreUserConfig restores the user config from a backup file.
// The current config (if any) is backed up before restore.
func RestoreUserConfig(backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return smerrors.New(smerrors.ErrCodeConfigNotFound, "backup file not found", err).
			WithDetail("path", backupPath)
	}

	configPath := GetUserConfigPath()
	if _, err := BackupFile(configPath, time.Now()); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return smerrors.New(smerrors.ErrCodeConfigPermission, "failed to create config directory", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return smerrors.New(smerrors.ErrCodeConfigPermission, "failed to write restored config", err)
	}
	return nil
}
