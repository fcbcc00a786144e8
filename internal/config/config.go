
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

const (
	DefaultUserAgent   = "*"
	DefaultDelay       = 2 * time.Second
	DefaultTimeout     = 10 * time.Second
	DefaultDialTimeout = 5 * time.Second
	DefaultOutput      = "output.txt"
)

// Config holds every knob of one pipeline run. Durations in YAML are
// written the way time.ParseDuration reads them ("2s", "1500ms").
type Config struct {
	UserAgent    string        `yaml:"user_agent"`
	Delay        time.Duration `yaml:"delay"`
	Timeout      time.Duration `yaml:"timeout"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	Output       string        `yaml:"output"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

func Default() Config {
	return Config{
		UserAgent:   DefaultUserAgent,
		Delay:       DefaultDelay,
		Timeout:     DefaultTimeout,
		DialTimeout: DefaultDialTimeout,
		Output:      DefaultOutput,
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.UserAgent == "":
		return fmt.Errorf("%w: user_agent must not be empty", ErrInvalid)
	case c.Delay < 0:
		return fmt.Errorf("%w: delay must not be negative", ErrInvalid)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalid)
	case c.DialTimeout < 0:
		return fmt.Errorf("%w: dial_timeout must not be negative", ErrInvalid)
	case c.Output == "":
		return fmt.Errorf("%w: output must not be empty", ErrInvalid)
	case c.MaxBodyBytes < 0:
		return fmt.Errorf("%w: max_body_bytes must not be negative", ErrInvalid)
	}
	for name, d := range map[string]time.Duration{"delay": c.Delay, "timeout": c.Timeout, "dial_timeout": c.DialTimeout} {
		// A bare YAML integer decodes as nanoseconds.
		if d > 0 && d < time.Millisecond {
			return fmt.Errorf("%w: %s is %v, write durations with a unit such as \"2s\"", ErrInvalid, name, d)
		}
	}
	return nil
}
