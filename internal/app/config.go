package app

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"go406/internal/receiver"
)

// Default configuration constants
const (
	DefaultBaudRate    = receiver.DefaultBaudRate
	DefaultReadTimeout = receiver.DefaultReadTimeout
	DefaultLogDir      = "./logs"
)

// Config holds application configuration
type Config struct {
	Port            string
	BaudRate        int
	ReadTimeout     time.Duration
	Input           string // replay file, "-" for stdin; overrides Port
	ConfigFile      string
	LogDir          string
	LogRotateUTC    bool
	RetainDays      int
	VerifyChecksums bool
	Verbose         bool
	ShowVersion     bool
	ListPorts       bool
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		BaudRate:        DefaultBaudRate,
		ReadTimeout:     DefaultReadTimeout,
		LogDir:          DefaultLogDir,
		LogRotateUTC:    true,
		VerifyChecksums: true,
	}
}

// fileConfig is the TOML layout of the configuration file
type fileConfig struct {
	Serial struct {
		Port        string `toml:"port"`
		Baud        int    `toml:"baud"`
		ReadTimeout string `toml:"read_timeout"`
	} `toml:"serial"`
	Log struct {
		Dir        string `toml:"dir"`
		UTC        bool   `toml:"utc"`
		RetainDays int    `toml:"retain_days"`
	} `toml:"log"`
	Decoder struct {
		VerifyChecksums bool `toml:"verify_checksums"`
	} `toml:"decoder"`
}

// LoadConfigFile overlays the keys present in the TOML file at path onto cfg.
// Keys missing from the file keep their current value.
func LoadConfigFile(path string, cfg *Config) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if md.IsDefined("serial", "port") {
		cfg.Port = fc.Serial.Port
	}
	if md.IsDefined("serial", "baud") {
		cfg.BaudRate = fc.Serial.Baud
	}
	if md.IsDefined("serial", "read_timeout") {
		timeout, err := time.ParseDuration(fc.Serial.ReadTimeout)
		if err != nil {
			return fmt.Errorf("config parse failed (%s): serial.read_timeout: %w", path, err)
		}
		cfg.ReadTimeout = timeout
	}
	if md.IsDefined("log", "dir") {
		cfg.LogDir = fc.Log.Dir
	}
	if md.IsDefined("log", "utc") {
		cfg.LogRotateUTC = fc.Log.UTC
	}
	if md.IsDefined("log", "retain_days") {
		cfg.RetainDays = fc.Log.RetainDays
	}
	if md.IsDefined("decoder", "verify_checksums") {
		cfg.VerifyChecksums = fc.Decoder.VerifyChecksums
	}

	return nil
}

// Validate checks the configuration before any component is started
func (c Config) Validate() error {
	if c.Input == "" && c.Port == "" {
		return fmt.Errorf("no input: set a serial port or an input file")
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.BaudRate)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout %s", c.ReadTimeout)
	}
	if c.LogDir == "" {
		return fmt.Errorf("log directory must not be empty")
	}
	if c.RetainDays < 0 {
		return fmt.Errorf("retain days must not be negative")
	}
	return nil
}
