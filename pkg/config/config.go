// Package config loads megamini settings from a TOML file and the environment.
//
// Sources are applied in order, later ones winning:
//
//  1. Built-in defaults ([Default])
//  2. The TOML file given to [Load], if any
//  3. MEGAMINI_* environment variables
//
// Command-line flags are applied on top by the CLI.
//
// # File Format
//
//	scene = "megamini.json"
//
//	[rig]
//	scale = 1000.0
//	fp_power = 0.5
//	fp_min_dist = 0.0
//	fp_min_scale = 0.0
//
//	[attach]
//	no_reparent = true
//	precreate_rig = true
//
// # Environment
//
//	MEGAMINI_SCENE, MEGAMINI_SCALE, MEGAMINI_FP_POWER, MEGAMINI_FP_MIN_DIST,
//	MEGAMINI_FP_MIN_SCALE, MEGAMINI_NO_REPARENT, MEGAMINI_PRECREATE_RIG
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/matzehuels/megamini/pkg/attach"
	"github.com/matzehuels/megamini/pkg/errors"
	"github.com/matzehuels/megamini/pkg/perspective"
)

// EnvPrefix prefixes every environment variable read by [Load].
const EnvPrefix = "MEGAMINI_"

// DefaultScenePath is the scene file used when none is configured.
const DefaultScenePath = "megamini.json"

// Config holds every setting the CLI reads.
type Config struct {
	// Scene is the JSON scene file commands operate on.
	Scene string `toml:"scene" env:"SCENE"`
	// Rig holds the parameters of newly created rigs.
	Rig perspective.Params `toml:"rig"`
	// Attach holds the attach policy. Its Defaults always mirror Rig.
	Attach attach.Policy `toml:"attach"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Scene:  DefaultScenePath,
		Rig:    perspective.DefaultParams(),
		Attach: attach.DefaultPolicy(),
	}
}

// Load builds a configuration from defaults, the TOML file at path (skipped
// when path is empty) and MEGAMINI_* environment variables.
//
// Unknown keys in the file are rejected so typos do not silently fall back
// to defaults. The resulting rig parameters are validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, errors.New(errors.ErrCodeInvalidParameter, "unknown config key %q in %s", undecoded[0].String(), path)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidParameter, err, "parse env")
	}
	if err := cfg.finish(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Apply revalidates c after fields were changed, for example by flags.
func (c *Config) Apply() error {
	return c.finish()
}

func (c *Config) finish() error {
	if c.Scene == "" {
		c.Scene = DefaultScenePath
	}
	if err := c.Rig.Validate(); err != nil {
		return fmt.Errorf("rig defaults: %w", err)
	}
	c.Attach.Defaults = c.Rig
	return nil
}
