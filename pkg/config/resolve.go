package config

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/vibekit/rulehub/api"
	"github.com/vibekit/rulehub/api/v1beta1/configs"
)

// LoadConfiguration resolves the configuration file for dir (see
// [api.ResolveConfigPath]) and loads it. A missing file that was not named
// explicitly yields the defaults. The returned path is the resolved file,
// whether or not it existed.
func LoadConfiguration(explicit, dir string, opts ...LoaderOpt) (*configs.Config, string, error) {
	path := api.ResolveConfigPath(explicit, dir)

	l, err := NewLoaderFromFile(path, configs.New, configs.DefaultValidator, opts...)
	if err != nil {
		if explicit == "" && errors.Is(err, fs.ErrNotExist) {
			slog.Debug("no configuration file, using defaults", slog.String("path", path))

			return configs.New(), path, nil
		}

		return nil, path, err
	}

	cfg, err := l.ValidateAndLoad()
	if err != nil {
		return nil, path, err
	}

	slog.Debug("loaded configuration", slog.String("path", path))

	return cfg, path, nil
}
