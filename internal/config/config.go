package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/digineo/pingpanel/monitor"
)

// Config holds the settings of a pingpanel session.
type Config struct {
	Interval    time.Duration `mapstructure:"interval" yaml:"interval"`         // tick interval of the driver
	Cadence     time.Duration `mapstructure:"cadence" yaml:"cadence"`           // minimum time between two probes of a target
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`           // bounded wait per probe
	Resolve     time.Duration `mapstructure:"resolve_timeout" yaml:"resolve_timeout"`
	Window      int           `mapstructure:"window" yaml:"window"`             // plot window size
	Bind4       string        `mapstructure:"bind4" yaml:"bind4"`
	Bind6       string        `mapstructure:"bind6" yaml:"bind6"`
	Privileged  bool          `mapstructure:"privileged" yaml:"privileged"`
	PayloadSize uint16        `mapstructure:"payload_size" yaml:"payload_size"`
	Targets     []Target      `mapstructure:"targets" yaml:"targets"`
}

// Target is the persisted definition of a monitored host. Probe history
// is never persisted.
type Target struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Address  string `mapstructure:"address" yaml:"address"`
	Group    int    `mapstructure:"group" yaml:"group,omitempty"`
	Notes    string `mapstructure:"notes" yaml:"notes,omitempty"`
	Scanning bool   `mapstructure:"scanning" yaml:"scanning,omitempty"`
}

// DefaultTargets are monitored when neither a config file nor the
// command line names any host.
var DefaultTargets = []Target{
	{Name: "localhost (v4)", Address: "127.0.0.1"},
	{Name: "localhost (v6)", Address: "::1"},
	{Name: "Google DNS", Address: "8.8.8.8"},
}

var errInvalid = errors.New("invalid configuration")

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", time.Second)
	v.SetDefault("cadence", time.Second)
	v.SetDefault("timeout", 3*time.Second)
	v.SetDefault("resolve_timeout", 2*time.Second)
	v.SetDefault("window", 20)
	v.SetDefault("bind4", "0.0.0.0")
	v.SetDefault("bind6", "::")
	v.SetDefault("privileged", false)
	v.SetDefault("payload_size", 56)
}

// Load reads the config file at path (optional, may be empty), applies
// PINGPANEL_* environment variables and the given flags on top, and
// validates the result.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("pingpanel")
	v.AutomaticEnv()

	if flags != nil {
		var err error
		flags.VisitAll(func(f *pflag.Flag) {
			if err == nil {
				// --payload-size sets payload_size
				err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", errInvalid)
	}
	if c.Cadence < 0 {
		return fmt.Errorf("%w: cadence must not be negative", errInvalid)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", errInvalid)
	}
	if c.Window < 1 {
		return fmt.Errorf("%w: window must be at least 1", errInvalid)
	}
	if c.Bind4 == "" && c.Bind6 == "" {
		return fmt.Errorf("%w: need at least one bind address", errInvalid)
	}
	for i, t := range c.Targets {
		if t.Address == "" {
			return fmt.Errorf("%w: target %d has no address", errInvalid, i)
		}
		if t.Group < 0 || t.Group >= monitor.NumGroups {
			return fmt.Errorf("%w: target %d has group %d", errInvalid, i, t.Group)
		}
	}
	return nil
}

// WithHosts returns the targets to monitor: the given hosts if any
// (already scanning), otherwise the configured targets, otherwise
// DefaultTargets.
func (c *Config) WithHosts(hosts []string) []Target {
	if len(hosts) > 0 {
		targets := make([]Target, len(hosts))
		for i, host := range hosts {
			targets[i] = Target{Name: host, Address: host, Scanning: true}
		}
		return targets
	}
	if len(c.Targets) > 0 {
		return c.Targets
	}
	return append([]Target(nil), DefaultTargets...)
}

// Save writes c as YAML to path.
func Save(path string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
