package monitor

import "time"

// Outcome stores the information about a single probe, in particular
// the round-trip time or whether the host was unreachable.
type Outcome struct {
	Latency time.Duration
	Lost    bool
}

// Success returns the outcome of a probe answered after latency.
func Success(latency time.Duration) Outcome {
	return Outcome{Latency: latency}
}

// Failure returns the outcome of a probe that was not answered, including
// probes whose address could not be resolved.
func Failure() Outcome {
	return Outcome{Lost: true}
}

// OK reports whether the probe was answered.
func (o Outcome) OK() bool {
	return !o.Lost
}

func (o Outcome) String() string {
	if o.Lost {
		return "lost"
	}
	return o.Latency.String()
}
