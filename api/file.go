// Package api holds the versioned configuration kinds and the file helpers
// used to locate, read and write them.
package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/vibekit/rulehub/pkg/yaml"
)

// AppName names the per-user config and data directories.
const AppName = "rulehub"

// ProjectConfigNames are searched for by [FindConfigFile] when no explicit
// configuration path is given.
var ProjectConfigNames = []string{".rulehub.yaml", "rulehub.yaml"}

// ConfigPath returns the path to name in the user's config directory,
// i.e. $XDG_CONFIG_HOME/rulehub/name.
func ConfigPath(name string) string {
	return filepath.Join(xdg.ConfigHome, AppName, name)
}

// DataPath returns the path to name in the user's data directory, i.e.
// $XDG_DATA_HOME/rulehub/name.
func DataPath(name string) string {
	return filepath.Join(xdg.DataHome, AppName, name)
}

// ResolveConfigPath picks the configuration file to load: explicit when
// set, else the nearest project file above dir, else the user config.
func ResolveConfigPath(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}

	if dir != "" {
		found, err := FindConfigFile(dir, ProjectConfigNames)
		if err != nil {
			slog.Debug("search project config", slog.String("dir", dir), slog.Any("err", err))
		}

		if found != "" {
			return found
		}
	}

	return ConfigPath("config.yaml")
}

// ReadFile reads a regular file.
func ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	switch {
	case info.IsDir():
		return nil, fmt.Errorf("%s: path is a directory", path)
	case !info.Mode().IsRegular():
		return nil, fmt.Errorf("%s: unknown file state", path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Potential file inclusion via variable.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// MarshalYAML serializes an object to YAML bytes.
func MarshalYAML(obj any) ([]byte, error) {
	b := &bytes.Buffer{}

	enc := yaml.NewEncoder(b)

	err := enc.Encode(obj)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return nil, fmt.Errorf("close yaml encoder: %w", err)
	}

	return b.Bytes(), nil
}

// WriteDefaultFile writes data to path unless a file is already there.
// With force, an existing file is renamed to a timestamped .old backup
// first.
func WriteDefaultFile(path string, data []byte, force bool, kind string) error {
	exists := false

	info, err := os.Stat(path)
	if info != nil {
		switch {
		case err == nil && info.Mode().IsRegular():
			exists = true
		case info.IsDir():
			return fmt.Errorf("%s: path is a directory", path)
		default:
			return fmt.Errorf("%s: unknown file state", path)
		}
	}

	err = os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	if exists && !force {
		slog.Debug("file already exists, skipping write",
			slog.String("type", kind),
			slog.String("path", path),
		)

		return nil
	}

	if exists {
		backup := filepath.Join(filepath.Dir(path),
			fmt.Sprintf("%s.%d.old", filepath.Base(path), time.Now().UnixNano()))

		slog.Info("backing up existing file",
			slog.String("type", kind),
			slog.String("path", backup),
		)

		err = os.Rename(path, backup)
		if err != nil {
			return fmt.Errorf("back up existing %s file: %w", kind, err)
		}
	}

	slog.Info("write default file",
		slog.String("type", kind),
		slog.String("path", path),
	)

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return fmt.Errorf("write %s file: %w", kind, err)
	}

	return nil
}

// FindConfigFile walks up from targetPath to the filesystem root and
// returns the first existing file among fileNames, or an empty string.
func FindConfigFile(targetPath string, fileNames []string) (string, error) {
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("stat path: %w", err)
	}

	dir := absPath
	if !info.IsDir() {
		dir = filepath.Dir(absPath)
	}

	for {
		for _, name := range fileNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}

		dir = parent
	}
}
