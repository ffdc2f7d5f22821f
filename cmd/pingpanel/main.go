package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	ping "github.com/digineo/pingpanel"
	"github.com/digineo/pingpanel/internal/config"
	"github.com/digineo/pingpanel/monitor"
)

var configPath string

func main() {
	log.SetFlags(0)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "pingpanel [flags] [host...]",
		Short:        "Monitor reachability and round-trip time of multiple hosts",
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			forwardLibraryLogs()
		},
		RunE: runUI,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "config file (YAML)")
	flags.Duration("interval", time.Second, "tick interval")
	flags.Duration("cadence", monitor.DefaultCadence, "minimum time between two probes of a host")
	flags.Duration("timeout", monitor.DefaultTimeout, "timeout for a single echo request")
	flags.Duration("resolve-timeout", 2*time.Second, "timeout for a single name lookup")
	flags.Int("window", 20, "number of probes shown per host")
	flags.String("bind4", "0.0.0.0", "IPv4 bind address, empty disables IPv4")
	flags.String("bind6", "::", "IPv6 bind address, empty disables IPv6")
	flags.Bool("privileged", false, "use raw sockets (requires root or CAP_NET_RAW)")
	flags.Uint16("payload-size", 56, "size of additional payload data")

	cmd.AddCommand(newWatchCmd(), newProbeCmd())
	return cmd
}

// session bundles the pieces every subcommand needs.
type session struct {
	cfg     *config.Config
	pinger  *ping.Pinger
	monitor *monitor.Monitor
}

// openSession loads the configuration, binds the ICMP sockets and creates
// a Monitor for the given hosts (or the configured ones).
func openSession(cmd *cobra.Command, hosts []string) (*session, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}

	pinger, err := openPinger(cfg)
	if err != nil {
		return nil, err
	}

	m := monitor.New(monitor.NewDNSResolver(cfg.Resolve), monitor.NewICMPProber(pinger))
	m.Cadence = cfg.Cadence
	m.Timeout = cfg.Timeout

	for _, t := range cfg.WithHosts(hosts) {
		_, err := m.Create(monitor.Spec{
			Name:     t.Name,
			Address:  t.Address,
			Group:    t.Group,
			Notes:    t.Notes,
			Scanning: t.Scanning,
		})
		if err != nil {
			pinger.Close()
			return nil, fmt.Errorf("target %q: %w", t.Address, err)
		}
	}

	return &session{cfg: cfg, pinger: pinger, monitor: m}, nil
}

func openPinger(cfg *config.Config) (*ping.Pinger, error) {
	pinger, err := ping.New(cfg.Bind4, cfg.Bind6, cfg.Privileged)
	if err != nil {
		if cfg.Privileged {
			return nil, fmt.Errorf("unable to bind: %w (running as root?)", err)
		}
		return nil, fmt.Errorf("unable to bind: %w (check net.ipv4.ping_group_range, or use --privileged)", err)
	}

	pinger.Timeout = cfg.Timeout
	pinger.SetPayloadSize(cfg.PayloadSize)
	return pinger, nil
}

// Close stops the monitor and releases the sockets.
func (s *session) Close() {
	s.monitor.Stop()
	s.pinger.Close()
}

// save writes the current target definitions to path.
func (s *session) save(path string) error {
	cfg := *s.cfg
	cfg.Targets = cfg.Targets[:0:0]

	for _, snap := range s.monitor.List() {
		cfg.Targets = append(cfg.Targets, config.Target{
			Name:     snap.Name,
			Address:  snap.Address,
			Group:    snap.Group,
			Notes:    snap.Notes,
			Scanning: snap.Scanning,
		})
	}

	return config.Save(path, &cfg)
}
