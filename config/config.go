package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jsphweid/chartview/constants"
	"github.com/jsphweid/chartview/logger"
)

type Config struct {
	Addr           string        `yaml:"addr"`
	LogLevel       string        `yaml:"log_level"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	RedrawDelay    time.Duration `yaml:"redraw_delay"`
	// Chart preloaded by serve, if set.
	Chart string `yaml:"chart"`
}

func Default() *Config {
	return &Config{
		Addr:           constants.DefaultAddr,
		LogLevel:       constants.DefaultLogLevel,
		AllowedOrigins: []string{"*"},
		MaxUploadBytes: constants.DefaultMaxUploadBytes,
		RedrawDelay:    100 * time.Millisecond,
	}
}

// ReadConfig overlays the YAML file on the defaults. A missing file is not
// an error when optional is set.
func ReadConfig(fsys fs.FS, configFile string, optional bool) (*Config, error) {
	config := Default()
	f, err := fsys.Open(configFile)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("could not open %v: %w", configFile, err)
	}
	defer f.Close()
	err = yaml.NewDecoder(f).Decode(config)
	if err != nil {
		return nil, fmt.Errorf("could not decode %v: %w", configFile, err)
	}
	return config, nil
}

// ApplyEnv lets environment variables override file settings.
func (c *Config) ApplyEnv() error {
	if os.Getenv(constants.AddrEnv) != "" {
		c.Addr = constants.GetAddr()
	}
	if os.Getenv(constants.LogLevelEnv) != "" {
		c.LogLevel = constants.GetLogLevel()
	}
	if origins := constants.GetAllowedOrigins(); origins != nil {
		c.AllowedOrigins = origins
	}
	if raw := os.Getenv(constants.MaxUploadBytesEnv); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("could not parse %v: %w", constants.MaxUploadBytesEnv, err)
		}
		c.MaxUploadBytes = n
	}
	if raw := os.Getenv(constants.RedrawDelayEnv); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("could not parse %v: %w", constants.RedrawDelayEnv, err)
		}
		c.RedrawDelay = d
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.RedrawDelay < 0 {
		return fmt.Errorf("redraw_delay must not be negative, got %v", c.RedrawDelay)
	}
	return nil
}
