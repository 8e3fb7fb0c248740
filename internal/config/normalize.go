package config

import (
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeFolders(); err != nil {
		return err
	}
	c.normalizeWatcher()
	c.normalizePermission()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	dataDir, err := expandPath(strings.TrimSpace(c.Paths.DataDir))
	if err != nil {
		return err
	}
	c.Paths.DataDir = dataDir

	logDir, err := expandPath(strings.TrimSpace(c.Paths.LogDir))
	if err != nil {
		return err
	}
	c.Paths.LogDir = logDir

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeFolders() error {
	normalized := make([]string, 0, len(c.Folders.CommonFolders))
	seen := make(map[string]struct{}, len(c.Folders.CommonFolders))
	for _, folder := range c.Folders.CommonFolders {
		trimmed := strings.TrimSpace(folder)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		if _, ok := seen[expanded]; ok {
			continue
		}
		seen[expanded] = struct{}{}
		normalized = append(normalized, expanded)
	}
	c.Folders.CommonFolders = normalized
	return nil
}

func (c *Config) normalizeWatcher() {
	if c.Watcher.DebounceMs <= 0 {
		c.Watcher.DebounceMs = defaultDebounceMs
	}
	if c.Watcher.EventBuffer <= 0 {
		c.Watcher.EventBuffer = defaultEventBuffer
	}
}

func (c *Config) normalizePermission() {
	if c.Permission.PollIntervalSeconds <= 0 {
		c.Permission.PollIntervalSeconds = defaultPermissionPollSeconds
	}
	if c.Permission.PollMaxAttempts <= 0 {
		c.Permission.PollMaxAttempts = defaultPermissionPollMax
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
