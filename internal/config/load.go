// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads the settings file from the given directory, probing
// .sessiontag.yaml first and .sessiontag.toml second. If neither exists it
// returns a zero-value Config and nil error; flags and defaults cover the
// rest.
func Load(dir string) (*Config, error) {
	yamlPath := filepath.Join(dir, YAMLFileName)
	data, err := os.ReadFile(yamlPath) //nolint:gosec // user-provided directory
	switch {
	case err == nil:
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", YAMLFileName, err)
		}
		return &cfg, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	tomlPath := filepath.Join(dir, TOMLFileName)
	data, err = os.ReadFile(tomlPath) //nolint:gosec // user-provided directory
	switch {
	case err == nil:
		var cfg Config
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", TOMLFileName, err)
		}
		return &cfg, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	return &Config{}, nil
}
