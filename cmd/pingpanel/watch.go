package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/digineo/pingpanel/monitor"
)

func newWatchCmd() *cobra.Command {
	report := time.Minute

	cmd := &cobra.Command{
		Use:   "watch [flags] [host...]",
		Short: "Probe hosts without user interface and print periodic reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, args)
			if err != nil {
				return err
			}
			defer s.Close()

			for _, snap := range s.monitor.List() {
				if err := s.monitor.SetScanning(snap.ID, true); err != nil {
					return err
				}
			}
			s.monitor.Start(s.cfg.Interval)

			// Handle SIGINT and SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ticker := time.NewTicker(report)
			defer ticker.Stop()

			out := cmd.OutOrStdout()
			for {
				select {
				case <-ctx.Done():
					writeReport(out, s.monitor, s.cfg.Window)
					return nil
				case <-ticker.C:
					writeReport(out, s.monitor, s.cfg.Window)
				}
			}
		},
	}

	cmd.Flags().DurationVar(&report, "report", report, "interval for reports")
	return cmd
}

// writeReport prints one line per target, aggregated over the last
// window probes.
func writeReport(w io.Writer, m *monitor.Monitor, window int) {
	for _, snap := range m.List() {
		metrics, err := m.Metrics(snap.ID, window)
		if err != nil {
			// removed in the meanwhile
			continue
		}

		if metrics == nil {
			fmt.Fprintf(w, "%s (%s): %s, no data\n", snap.Name, snap.Address, snap.Status)
			continue
		}

		fmt.Fprintf(w, "%s (%s): %s, sent=%d loss=%s last=%s best=%s worst=%s mean=%s stddev=%s\n",
			snap.Name, snap.Address, snap.Status,
			metrics.PacketsSent, loss(metrics), last(metrics),
			ts(metrics.Best), ts(metrics.Worst), ts(metrics.Mean), ts(metrics.StdDev),
		)
	}
}
