package calc

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"nickandperla.net/calc/internal/eval"
)

// Config is the file form of the runtime options.
type Config struct {
	// DB is the SQLite history path. Empty keeps history in memory.
	DB          string `yaml:"db"`
	CacheSize   int    `yaml:"cache_size"`
	MaxExponent int64  `yaml:"max_exponent"`
	Overflow    string `yaml:"overflow"`
	Parallelism int    `yaml:"parallelism"`
	// Listen is the address used by the HTTP server.
	Listen string `yaml:"listen"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		MaxExponent: eval.DefaultMaxExponent,
		Overflow:    eval.OverflowFail.String(),
		Listen:      "localhost:8080",
	}
}

// LoadConfig reads a YAML config file. Fields absent from the file keep
// their DefaultConfig values; unknown fields are an error.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "reading config")
	}
	cfg, err := ParseConfig(b)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// ParseConfig parses YAML config content.
func ParseConfig(b []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "parsing config")
	}
	return cfg, cfg.Validate()
}

// Validate checks field values.
func (c Config) Validate() error {
	if _, ok := eval.ParseOverflow(c.Overflow); !ok {
		return errors.Errorf("unknown overflow policy %q (use fail or wrap)", c.Overflow)
	}
	if c.CacheSize < 0 {
		return errors.Errorf("cache_size must not be negative, got %d", c.CacheSize)
	}
	if c.MaxExponent < 0 {
		return errors.Errorf("max_exponent must not be negative, got %d", c.MaxExponent)
	}
	if c.Parallelism < 0 {
		return errors.Errorf("parallelism must not be negative, got %d", c.Parallelism)
	}
	return nil
}

// Options converts the config into runtime options.
func (c Config) Options() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	overflow, _ := eval.ParseOverflow(c.Overflow)

	opts := []Option{
		WithMaxExponent(c.MaxExponent),
		WithOverflow(overflow),
		WithParallelism(c.Parallelism),
	}
	if c.DB != "" {
		opts = append(opts, WithSQLiteStore(c.DB))
	} else {
		opts = append(opts, WithMemoryStore())
	}
	if c.CacheSize > 0 {
		opts = append(opts, WithCache(c.CacheSize))
	}
	return opts, nil
}
