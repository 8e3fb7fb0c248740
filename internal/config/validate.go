package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate checks configuration values for consistency.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFolders(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir is required")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir is required")
	}
	return nil
}

func (c *Config) validateFolders() error {
	for _, folder := range c.Folders.CommonFolders {
		if !filepath.IsAbs(folder) {
			return fmt.Errorf("folders.common_folders entry %q is not absolute", folder)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
