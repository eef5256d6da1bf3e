package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeDrive(); err != nil {
		return err
	}
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	c.normalizeCapture()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeDrive() error {
	c.Drive.Device = strings.TrimSpace(c.Drive.Device)
	return nil
}

func (c *Config) normalizeOutput() error {
	c.Output.Directory = strings.TrimSpace(c.Output.Directory)
	if c.Output.Directory == "" {
		c.Output.Directory = defaultOutputDir
	}
	var err error
	if c.Output.Directory, err = expandPath(c.Output.Directory); err != nil {
		return fmt.Errorf("output.directory: %w", err)
	}
	return nil
}

func (c *Config) normalizeCapture() {
	if c.Capture.BufferKiB <= 0 {
		c.Capture.BufferKiB = defaultBufferKiB
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.LogDir = strings.TrimSpace(c.Logging.LogDir)
	if c.Logging.LogDir != "" {
		var err error
		if c.Logging.LogDir, err = expandPath(c.Logging.LogDir); err != nil {
			return fmt.Errorf("logging.log_dir: %w", err)
		}
	}
	return nil
}
