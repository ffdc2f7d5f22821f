package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/digineo/pingpanel/internal/config"
	"github.com/digineo/pingpanel/monitor"
)

var errUnreachable = errors.New("host unreachable")

func newProbeCmd() *cobra.Command {
	count := 1

	cmd := &cobra.Command{
		Use:   "probe [flags] host",
		Short: "Resolve and probe a single host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("count must be at least 1, got %d", count)
			}

			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}

			pinger, err := openPinger(cfg)
			if err != nil {
				return err
			}
			defer pinger.Close()

			var progress func()
			if count > 1 {
				bar := pb.New(count)
				bar.Output = cmd.ErrOrStderr()
				bar.Start()
				defer bar.Finish()
				progress = func() { bar.Increment() }
			}

			history := runProbes(cmd.Context(), probeRun{
				resolver: monitor.NewDNSResolver(cfg.Resolve),
				prober:   monitor.NewICMPProber(pinger),
				cadence:  cfg.Cadence,
				timeout:  cfg.Timeout,
			}, args[0], count, progress)

			return printProbes(cmd, args[0], history)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", count, "number of probes")
	return cmd
}

type probeRun struct {
	resolver monitor.Resolver
	prober   monitor.Prober
	cadence  time.Duration
	timeout  time.Duration
}

// runProbes probes host count times, cadence apart, and returns the
// recorded outcomes. It stops early when ctx is done.
func runProbes(ctx context.Context, p probeRun, host string, count int, progress func()) *monitor.History {
	history := monitor.NewHistory(count)

	for i := 0; i < count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return history
			case <-time.After(p.cadence):
			}
		}

		outcome := monitor.Failure()
		if addr, err := p.resolver.Resolve(ctx, host); err == nil {
			outcome = p.prober.Probe(ctx, addr, p.timeout)
		}
		history.Add(time.Now(), outcome)

		if progress != nil {
			progress()
		}
	}

	return history
}

func printProbes(cmd *cobra.Command, host string, history *monitor.History) error {
	metrics := history.Compute(history.Len())
	if metrics == nil {
		return errUnreachable
	}

	if metrics.PacketsSent == 1 {
		if metrics.Last.Lost {
			return fmt.Errorf("%s: %w", host, errUnreachable)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: reply in %s\n", host, ts(metrics.Last.Latency))
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: sent=%d loss=%s best=%s worst=%s mean=%s stddev=%s\n",
		host, metrics.PacketsSent, loss(metrics),
		ts(metrics.Best), ts(metrics.Worst), ts(metrics.Mean), ts(metrics.StdDev))

	if metrics.PacketsLost == metrics.PacketsSent {
		return fmt.Errorf("%s: %w", host, errUnreachable)
	}
	return nil
}
