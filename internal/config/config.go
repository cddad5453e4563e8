// Package config loads and validates the application's YAML configuration.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dastsc/nexus/internal/clearance"
)

// DefaultGetDataPath is where the simulator's data plugin writes on a stock
// Steam install; overridden in config for non-standard layouts or Proton
// prefixes.
const DefaultGetDataPath = `C:\Program Files (x86)\Steam\steamapps\common\RailWorks\plugins\GetData.txt`

type ServerConfig struct {
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

type FeedConfig struct {
	Mode           string `yaml:"mode" validate:"omitempty,oneof=file serial mock"`
	Path           string `yaml:"path"`
	SerialPort     string `yaml:"serialPort"`
	PollIntervalMS int    `yaml:"pollIntervalMS" validate:"gte=0"`
	MockFixture    string `yaml:"mockFixture"`
}

type LogConfig struct {
	Level      string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB" validate:"gte=0"`
	MaxBackups int    `yaml:"maxBackups" validate:"gte=0"`
}

type AppConfig struct {
	Server      ServerConfig     `yaml:"server"`
	Feed        FeedConfig       `yaml:"feed"`
	ProfilesDir string           `yaml:"profilesDir"`
	Log         LogConfig        `yaml:"log"`
	Clearance   clearance.Tuning `yaml:"clearance"`
}

// Default returns the configuration used when no file is present.
func Default() AppConfig {
	return AppConfig{
		Server:      ServerConfig{Listen: ":8000"},
		Feed:        FeedConfig{Mode: "file", Path: DefaultGetDataPath, PollIntervalMS: 50},
		ProfilesDir: "profiles",
		Log:         LogConfig{Level: "info"},
		Clearance:   clearance.DefaultTuning(),
	}
}

// Load reads the config at path, falling back to config.yml in the working
// directory when path is empty. A missing file is not an error: the
// defaults cover a stock install.
func Load(path string) (AppConfig, error) {
	explicit := path != ""
	if !explicit {
		path = "config.yml"
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults fills fields the file left at their zero value. YAML
// unmarshals over the Default() seed, but an explicit empty value or a
// partially specified section still needs backfilling.
func (c *AppConfig) applyDefaults() {
	d := Default()
	if c.Server.Listen == "" {
		c.Server.Listen = d.Server.Listen
	}
	if c.Feed.Mode == "" {
		c.Feed.Mode = d.Feed.Mode
	}
	if c.Feed.Path == "" {
		c.Feed.Path = d.Feed.Path
	}
	if c.Feed.PollIntervalMS == 0 {
		c.Feed.PollIntervalMS = d.Feed.PollIntervalMS
	}
	if c.ProfilesDir == "" {
		c.ProfilesDir = d.ProfilesDir
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	dt := clearance.DefaultTuning()
	if c.Clearance.CrossingNearM == 0 {
		c.Clearance.CrossingNearM = dt.CrossingNearM
	}
	if c.Clearance.CrossingJumpM == 0 {
		c.Clearance.CrossingJumpM = dt.CrossingJumpM
	}
	if c.Clearance.NominalTickSec == 0 {
		c.Clearance.NominalTickSec = dt.NominalTickSec
	}
	if c.Clearance.MaxTickSec == 0 {
		c.Clearance.MaxTickSec = dt.MaxTickSec
	}
}
