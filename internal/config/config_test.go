package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digineo/pingpanel/monitor"
)

func TestLoadDefaults(t *testing.T) {
	assert := assert.New(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(time.Second, cfg.Interval)
	assert.Equal(time.Second, cfg.Cadence)
	assert.Equal(3*time.Second, cfg.Timeout)
	assert.Equal(20, cfg.Window)
	assert.Equal("0.0.0.0", cfg.Bind4)
	assert.Equal("::", cfg.Bind6)
	assert.False(cfg.Privileged)
	assert.EqualValues(56, cfg.PayloadSize)
	assert.Empty(cfg.Targets)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "pingpanel.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Window)
}

func TestLoadFile(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "pingpanel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timeout: 500ms
window: 60
bind6: ""
targets:
  - name: router
    address: 192.168.1.1
    group: 2
    scanning: true
  - address: example.com
    notes: |
      upstream
`), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(500*time.Millisecond, cfg.Timeout)
	assert.Equal(60, cfg.Window)
	assert.Equal("", cfg.Bind6)
	assert.Equal(time.Second, cfg.Cadence)

	if assert.Len(cfg.Targets, 2) {
		assert.Equal(Target{Name: "router", Address: "192.168.1.1", Group: 2, Scanning: true}, cfg.Targets[0])
		assert.Equal("example.com", cfg.Targets[1].Address)
		assert.Equal("upstream\n", cfg.Targets[1].Notes)
	}
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pingpanel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: 60\n"), 0o644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("window", 20, "")
	flags.Duration("timeout", time.Second, "")
	flags.Uint16("payload-size", 56, "")
	require.NoError(t, flags.Parse([]string{"--window", "30", "--payload-size", "8"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Window)
	assert.EqualValues(t, 8, cfg.PayloadSize)

	// defaults take precedence over unchanged flags
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pingpanel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: [\n"), 0o644))

	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Interval: time.Second,
			Timeout:  time.Second,
			Window:   20,
			Bind4:    "0.0.0.0",
		}
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"interval", func(c *Config) { c.Interval = 0 }},
		{"cadence", func(c *Config) { c.Cadence = -time.Second }},
		{"timeout", func(c *Config) { c.Timeout = 0 }},
		{"window", func(c *Config) { c.Window = 0 }},
		{"bind", func(c *Config) { c.Bind4 = "" }},
		{"address", func(c *Config) { c.Targets = []Target{{Name: "x"}} }},
		{"group", func(c *Config) { c.Targets = []Target{{Address: "::1", Group: monitor.NumGroups}} }},
		{"negative group", func(c *Config) { c.Targets = []Target{{Address: "::1", Group: -1}} }},
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	// every group the monitor accepts is a valid configuration
	for group := 0; group < monitor.NumGroups; group++ {
		cfg.Targets = []Target{{Address: "::1", Group: group}}
		assert.NoError(t, cfg.Validate(), "group %d", group)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), errInvalid)
		})
	}
}

func TestWithHosts(t *testing.T) {
	assert := assert.New(t)

	var cfg Config
	assert.Equal(DefaultTargets, cfg.WithHosts(nil))

	cfg.Targets = []Target{{Name: "router", Address: "192.168.1.1"}}
	assert.Equal(cfg.Targets, cfg.WithHosts(nil))

	assert.Equal([]Target{{Name: "example.com", Address: "example.com", Scanning: true}}, cfg.WithHosts([]string{"example.com"}))
}

func TestSaveTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pingpanel.yaml")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	cfg.Window = 40
	cfg.Targets = []Target{
		{Name: "router", Address: "192.168.1.1", Group: 3, Notes: "closet"},
	}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
