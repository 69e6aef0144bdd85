// Package config loads the YAML configuration of the emvcard tool.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gregLibert/emvcard/pkg/card"
	"github.com/gregLibert/emvcard/pkg/host"
	"github.com/gregLibert/emvcard/pkg/logging"
)

// EnvFile names the environment variable holding the configuration path.
const EnvFile = "EMVCARD_CONFIG"

// Reader kinds.
const (
	ReaderVirtual = "virtual"
	ReaderPCSC    = "pcsc"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the tool settings. Command line flags override file values.
type Config struct {
	Reader      string `yaml:"reader"`       // virtual or pcsc
	ReaderIndex int    `yaml:"reader_index"` // index in the PC/SC reader list
	Protocol    string `yaml:"protocol"`     // t0 or t1
	LogLevel    string `yaml:"log_level"`    // debug, info, warn or error
	AID         string `yaml:"aid"`          // hex AID to select
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Reader:      ReaderVirtual,
		ReaderIndex: 0,
		Protocol:    "t1",
		LogLevel:    "info",
		AID:         strings.ToUpper(hex.EncodeToString(card.ApplicationIdentifier)),
	}
}

// Load reads the YAML file at path on top of the defaults and validates the
// result. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	switch c.Reader {
	case ReaderVirtual, ReaderPCSC:
	default:
		return fmt.Errorf("%w: reader %q (want %s or %s)", ErrInvalid, c.Reader, ReaderVirtual, ReaderPCSC)
	}

	if c.ReaderIndex < 0 {
		return fmt.Errorf("%w: reader_index %d is negative", ErrInvalid, c.ReaderIndex)
	}

	if _, err := host.ParseProtocol(c.Protocol); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	aid, err := c.AIDBytes()
	if err != nil {
		return fmt.Errorf("%w: aid: %v", ErrInvalid, err)
	}
	if len(aid) < 5 || len(aid) > 16 {
		return fmt.Errorf("%w: aid must be 5 to 16 bytes, got %d", ErrInvalid, len(aid))
	}

	return nil
}

// AIDBytes decodes the hex AID, ignoring spaces.
func (c *Config) AIDBytes() ([]byte, error) {
	return hex.DecodeString(strings.ReplaceAll(c.AID, " ", ""))
}
