package main

import (
	"os"

	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/internal/logging"
)

// ConfigGroup contains configuration file operations.
type ConfigGroup struct {
	Init ConfigInitCmd `cmd:"" help:"Write a configuration file with the current settings"`
	Path ConfigPathCmd `cmd:"" help:"Print the configuration file location"`
}

// ConfigInitCmd writes the effective configuration.
type ConfigInitCmd struct {
	Path    string `arg:"" optional:"" help:"Where to write (default: the config file location)" type:"path"`
	Creator string `help:"Author written on new comments"`
	Force   bool   `help:"Overwrite an existing file"`
}

func (c *ConfigInitCmd) Run(app *App) error {
	path := c.Path
	if path == "" {
		path = app.ConfigPath
	}
	if path == "" {
		return errors.NewValidation("config", "path", "no config location; pass a path")
	}
	if !c.Force {
		if _, err := os.Stat(path); err == nil {
			return errors.NewValidation("config", "path", path+" exists; pass --force to overwrite")
		}
	}
	cfg := *app.Config
	if c.Creator != "" {
		cfg.Creator = c.Creator
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	logging.Info("config written", "path", path)
	app.printf("Wrote %s\n", path)
	return nil
}

// ConfigPathCmd prints the configuration location.
type ConfigPathCmd struct{}

func (c *ConfigPathCmd) Run(app *App) error {
	app.printf("%s\n", app.ConfigPath)
	return nil
}
