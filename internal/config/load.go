package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "JULOOK_"

// Options selects the sources Load reads.
type Options struct {
	// Path is a .toml, .yaml or .yml file. Empty skips the file layer.
	Path string
	// EnvFile is a dotenv file. Empty skips it; a missing file is ignored.
	EnvFile string
	// SkipEnv ignores the process environment.
	SkipEnv bool
}

// Load builds a validated Config from the layers selected by opts.
func Load(opts Options) (Config, error) {
	cfg := Default()
	if opts.Path != "" {
		if err := LoadFile(opts.Path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if opts.EnvFile != "" {
		if err := LoadDotEnv(opts.EnvFile); err != nil {
			return Config{}, err
		}
	}
	if !opts.SkipEnv {
		if err := ApplyEnv(&cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFile decodes path over cfg. Keys absent from the file keep their
// current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return &ParseError{Path: path, Format: "toml", Err: err}
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return &ParseError{Path: path, Format: "yaml", Err: err}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return nil
}

// LoadDotEnv loads variables from a dotenv file into the process
// environment. Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &ParseError{Path: path, Format: "env", Err: err}
	}
	return nil
}

// ApplyEnv overlays JULOOK_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return &ParseError{Path: "environment", Format: "env", Err: err}
	}
	return nil
}
