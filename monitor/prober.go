package monitor

import (
	"context"
	"net"
	"time"

	ping "github.com/digineo/pingpanel"
)

// A Prober sends a single reachability probe and blocks until the reply
// arrives or timeout elapses. Unreachability is reported as a Failure
// outcome, never as an error.
type Prober interface {
	Probe(ctx context.Context, addr *net.IPAddr, timeout time.Duration) Outcome
}

// ProberFunc adapts an ordinary function to the Prober interface.
type ProberFunc func(ctx context.Context, addr *net.IPAddr, timeout time.Duration) Outcome

// Probe calls f(ctx, addr, timeout).
func (f ProberFunc) Probe(ctx context.Context, addr *net.IPAddr, timeout time.Duration) Outcome {
	return f(ctx, addr, timeout)
}

// ICMPProber probes with a single ICMP Echo Request.
type ICMPProber struct {
	pinger *ping.Pinger
}

// NewICMPProber wraps an opened Pinger. The Pinger remains owned by the
// caller.
func NewICMPProber(pinger *ping.Pinger) *ICMPProber {
	return &ICMPProber{pinger: pinger}
}

// Probe implements Prober. It never retries.
func (p *ICMPProber) Probe(ctx context.Context, addr *net.IPAddr, timeout time.Duration) Outcome {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rtt, err := p.pinger.PingContext(ctx, addr)
	if err != nil {
		return Failure()
	}
	return Success(rtt)
}
