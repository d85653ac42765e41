// Package config is the configuration of the senro server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"nyiyui.ca/hato/senro/collide"
	"nyiyui.ca/hato/senro/place"
)

type Config struct {
	Listen         string   `json:"listen" yaml:"listen"`
	DBPath         string   `json:"db-path" yaml:"db-path"`
	AllowedOrigins []string `json:"allowed-origins" yaml:"allowed-origins"`
	// SnapThreshold is in mm.
	SnapThreshold float64 `json:"snap-threshold" yaml:"snap-threshold"`
	// CoincidenceThreshold is in mm.
	CoincidenceThreshold float64 `json:"coincidence-threshold" yaml:"coincidence-threshold"`
}

func Default() Config {
	return Config{
		Listen:               ":8032",
		DBPath:               "./senro.db",
		AllowedOrigins:       []string{"http://localhost:5173"},
		SnapThreshold:        place.DefaultSnapThreshold,
		CoincidenceThreshold: collide.DefaultCoincidenceThreshold,
	}
}

func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen: empty")
	}
	if c.DBPath == "" {
		return errors.New("db-path: empty")
	}
	if c.SnapThreshold <= 0 {
		return fmt.Errorf("snap-threshold: must be positive, got %g", c.SnapThreshold)
	}
	if c.CoincidenceThreshold <= 0 {
		return fmt.Errorf("coincidence-threshold: must be positive, got %g", c.CoincidenceThreshold)
	}
	return nil
}

// Resolver returns a placement resolver using c's thresholds.
func (c Config) Resolver() place.Resolver {
	r := place.NewResolver()
	r.SnapThreshold = c.SnapThreshold
	r.Collide.CoincidenceThreshold = c.CoincidenceThreshold
	return r
}

// LoadJSON reads a config from r. Fields absent from r keep their defaults.
func LoadJSON(r io.Reader) (Config, error) {
	c := Default()
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// LoadYAML reads a config from r. Fields absent from r keep their defaults.
func LoadYAML(r io.Reader) (Config, error) {
	c := Default()
	if err := yaml.NewDecoder(r).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return c, c.Validate()
}

// Load reads a config file, as YAML if it ends in .yaml or .yml and as JSON otherwise.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	var c Config
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		c, err = LoadYAML(f)
	default:
		c, err = LoadJSON(f)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	return c, nil
}
