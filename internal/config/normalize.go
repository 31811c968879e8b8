package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeClient()
	c.normalizeSync()
	c.normalizeLogging()
	c.normalizeNotifications()
	c.normalizeServers()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeClient() {
	c.Client.Name = strings.TrimSpace(c.Client.Name)
	if c.Client.Name == "" {
		c.Client.Name = defaultClientName
	}
	c.Client.Version = strings.TrimSpace(c.Client.Version)
	if c.Client.Version == "" {
		c.Client.Version = defaultClientVersion
	}
	c.Client.DeviceName = strings.TrimSpace(c.Client.DeviceName)
	if c.Client.DeviceName == "" {
		if host, err := os.Hostname(); err == nil {
			c.Client.DeviceName = host
		} else {
			c.Client.DeviceName = "satchel"
		}
	}
	c.Client.DeviceID = strings.TrimSpace(c.Client.DeviceID)
	if c.Client.DeviceID == "" {
		c.Client.DeviceID = uuid.NewString()
	}
}

func (c *Config) normalizeSync() {
	if c.Sync.MaxNewDownloads <= 0 {
		c.Sync.MaxNewDownloads = defaultMaxNewDownloads
	}
	if c.Sync.ProgressOnlyThreshold <= 0 {
		c.Sync.ProgressOnlyThreshold = defaultProgressOnlyThreshold
	}
	if c.Sync.DownloadTimeout < 0 {
		c.Sync.DownloadTimeout = defaultDownloadTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeServers() {
	for i := range c.Servers {
		server := &c.Servers[i]
		server.ID = strings.TrimSpace(server.ID)
		server.Name = strings.TrimSpace(server.Name)
		server.Address = strings.TrimRight(strings.TrimSpace(server.Address), "/")
		server.AccessToken = strings.TrimSpace(server.AccessToken)
		server.UserID = strings.TrimSpace(server.UserID)
	}
}
