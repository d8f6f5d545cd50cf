package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// maxConfigBackups bounds how many timestamped copies of the user
// config are kept; older ones are removed after each new backup.
const maxConfigBackups = 3

const backupTimeLayout = "20060102-150405"

// BackupUserConfig writes a timestamped copy of the user config next to
// it before an overwrite, named config.yaml.<timestamp>.bak so backups
// sort chronologically by name. No user config is not an error; the
// returned path is empty.
func BackupUserConfig() (string, error) {
	configPath := GetUserConfigPath()
	if !UserConfigExists() {
		return "", nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to read config for backup: %w", err)
	}

	backupPath := fmt.Sprintf("%s.%s.bak", configPath, time.Now().Format(backupTimeLayout))
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	// Retention is best effort; the backup itself already succeeded.
	pruneConfigBackups()

	return backupPath, nil
}

// ListUserConfigBackups returns the user config backups, newest first.
func ListUserConfigBackups() ([]string, error) {
	configPath := GetUserConfigPath()
	configDir := filepath.Dir(configPath)
	base := filepath.Base(configPath)

	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list config directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, base+".") && strings.HasSuffix(name, ".bak") {
			backups = append(backups, filepath.Join(configDir, name))
		}
	}

	// The embedded timestamp makes name order chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))

	return backups, nil
}

func pruneConfigBackups() {
	backups, err := ListUserConfigBackups()
	if err != nil || len(backups) <= maxConfigBackups {
		return
	}
	for _, backup := range backups[maxConfigBackups:] {
		_ = os.Remove(backup)
	}
}
