// Package cliconfig loads the yangmodel CLI's optional YAML config file,
// the way the teacher's app wires its own flag defaults through a small
// config struct.
package cliconfig

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config holds CLI defaults that are tedious to repeat on every
// invocation: where to find YANG modules and the yang-library manifest to
// use when none is given on the command line.
type Config struct {
	SearchDirs []string `yaml:"search-dirs"`
	Library    string   `yaml:"library"`
}

// Load reads a YAML config file at path. A missing file is not an error;
// it yields a zero Config so CLI flags remain the sole source of truth.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Merge layers CLI-flag values over the config file's defaults: a
// non-empty flag value always wins.
func (c *Config) Merge(searchDirs []string, library string) ([]string, string) {
	dirs := searchDirs
	if len(dirs) == 0 {
		dirs = c.SearchDirs
	}
	lib := library
	if lib == "" {
		lib = c.Library
	}
	return dirs, lib
}
