package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digineo/pingpanel/monitor"
)

// literalResolver accepts IP literals only.
type literalResolver struct{}

func (literalResolver) Resolve(_ context.Context, host string) (*net.IPAddr, error) {
	if ip := net.ParseIP(host); ip != nil {
		return &net.IPAddr{IP: ip}, nil
	}
	return nil, &monitor.ResolutionError{Host: host, Err: monitor.ErrNoAddress}
}

// alternate answers every other probe.
func alternate() monitor.Prober {
	n := 0
	return monitor.ProberFunc(func(context.Context, *net.IPAddr, time.Duration) monitor.Outcome {
		n++
		if n%2 == 0 {
			return monitor.Failure()
		}
		return monitor.Success(time.Duration(n) * time.Millisecond)
	})
}

func testCmd() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	return cmd, &out
}

func TestRunProbes(t *testing.T) {
	assert := assert.New(t)

	calls := 0
	h := runProbes(context.Background(), probeRun{
		resolver: literalResolver{},
		prober:   alternate(),
		timeout:  time.Second,
	}, "192.0.2.1", 4, func() { calls++ })

	assert.Equal(4, calls)
	assert.Equal(4, h.Len())
	assert.Equal([][]monitor.Point{
		{{Index: 0, Latency: 0.001}},
		{{Index: 2, Latency: 0.003}},
	}, h.Segments(4))

	cmd, out := testCmd()
	require.NoError(t, printProbes(cmd, "192.0.2.1", h))
	assert.Contains(out.String(), "sent=4 loss=50.00%")
}

func TestRunProbesUnresolvable(t *testing.T) {
	h := runProbes(context.Background(), probeRun{
		resolver: literalResolver{},
		prober:   alternate(),
	}, "not-an-ip", 1, nil)

	require.Equal(t, 1, h.Len())
	assert.True(t, h.Window(1)[0].Lost)

	cmd, _ := testCmd()
	assert.True(t, errors.Is(printProbes(cmd, "not-an-ip", h), errUnreachable))
}

func TestRunProbesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := runProbes(ctx, probeRun{
		resolver: literalResolver{},
		prober:   alternate(),
		cadence:  time.Hour,
	}, "192.0.2.1", 3, nil)

	// the first probe is always sent
	assert.Equal(t, 1, h.Len())
}

func TestPrintSingleProbe(t *testing.T) {
	h := monitor.NewHistory(1)
	h.Add(time.Now(), monitor.Success(2*time.Millisecond))

	cmd, out := testCmd()
	require.NoError(t, printProbes(cmd, "::1", h))
	assert.Equal(t, "::1: reply in 2.00ms\n", out.String())
}

func TestWriteReport(t *testing.T) {
	assert := assert.New(t)

	m := monitor.New(literalResolver{}, monitor.ProberFunc(func(context.Context, *net.IPAddr, time.Duration) monitor.Outcome {
		return monitor.Success(4 * time.Millisecond)
	}))

	_, err := m.Create(monitor.Spec{Name: "lo", Address: "127.0.0.1", Scanning: true})
	require.NoError(t, err)
	_, err = m.Create(monitor.Spec{Name: "idle", Address: "::1"})
	require.NoError(t, err)

	m.TickAll(time.Now())
	m.Wait()

	var out bytes.Buffer
	writeReport(&out, m, 20)

	assert.Equal(
		"lo (127.0.0.1): up, sent=1 loss=0.00% last=4.00ms best=4.00ms worst=4.00ms mean=4.00ms stddev=0s\n"+
			"idle (::1): unknown, no data\n",
		out.String())
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"watch", "probe"}, names)

	for _, flag := range []string{"config", "interval", "cadence", "timeout", "window", "bind4", "bind6", "privileged", "payload-size", "resolve-timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}
