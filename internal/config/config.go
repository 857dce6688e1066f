// Package config loads odfnote settings from a YAML or TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/core/odf"
	"github.com/FocuswithJustin/odfnote/internal/logging"
)

// Config holds the user settings. Zero fields take the defaults.
type Config struct {
	// Creator is written as dc:creator on new annotations.
	Creator string `yaml:"creator" toml:"creator"`
	// NamePrefix is the prefix of generated annotation names.
	NamePrefix string        `yaml:"name_prefix" toml:"name_prefix"`
	Log        LogConfig     `yaml:"log" toml:"log"`
	Catalog    CatalogConfig `yaml:"catalog" toml:"catalog"`
}

// LogConfig selects the logger level and handler.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// CatalogConfig locates the SQLite catalog.
type CatalogConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		NamePrefix: odf.DefaultNamePrefix,
		Log:        LogConfig{Level: "warn", Format: "text"},
		Catalog:    CatalogConfig{Path: "odfnote.db"},
	}
}

// DefaultPath returns the per-user config file location,
// $XDG_CONFIG_HOME/odfnote/config.yaml or its platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "odfnote", "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error. Files
// ending in .toml are decoded as TOML, anything else as YAML.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}

	format := "YAML"
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = "TOML"
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, &errors.ParseError{Format: format, Path: path, Message: err.Error(), Err: err}
	}
	cfg.fill()
	return cfg, cfg.Validate()
}

// fill restores defaults for keys the file set to empty values.
func (c *Config) fill() {
	d := Default()
	if c.NamePrefix == "" {
		c.NamePrefix = d.NamePrefix
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = d.Catalog.Path
	}
}

// Validate checks the values that cannot be used as given.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, errors.NewValidation("config", "log.level", err.Error()))
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, errors.NewValidation("config", "log.format", err.Error()))
	}
	if strings.ContainsAny(c.NamePrefix, " \t\n\"'<>&") {
		errs = append(errs, errors.NewValidation("config", "name_prefix",
			fmt.Sprintf("%q contains characters not allowed in names", c.NamePrefix)))
	}
	return errors.Join(errs)
}

// Allocator returns the name allocator for the configured prefix.
func (c *Config) Allocator() *odf.NameAllocator {
	return odf.NewNameAllocator(c.NamePrefix)
}

// ApplyLogging configures the global logger.
func (c *Config) ApplyLogging() error {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(c.Log.Format)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

// Save writes the configuration as YAML, or TOML for a .toml path.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewIO("create directory for", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewIO("write", path, err)
	}
	return nil
}
