package monitor

import (
	"math"
	"sort"
	"time"
)

// Metrics is a dumb data point computed from a window of Entries.
type Metrics struct {
	PacketsSent int           // number of probes
	PacketsLost int           // number of lost probes
	Last        Outcome       // most recent outcome
	Best        time.Duration // best rtt
	Worst       time.Duration // worst rtt
	Median      time.Duration // median rtt
	Mean        time.Duration // mean rtt
	StdDev      time.Duration // std deviation
}

// Loss returns the share of lost probes, between 0 and 1.
func (m *Metrics) Loss() float64 {
	if m.PacketsSent == 0 {
		return 0
	}
	return float64(m.PacketsLost) / float64(m.PacketsSent)
}

func compute(entries []Entry) *Metrics {
	numFailure := 0
	numTotal := len(entries)

	if numTotal == 0 {
		return nil
	}

	data := make([]float64, 0, numTotal)
	var best, worst, stddev, median time.Duration
	var total, sumSquares, mean float64
	var extremeFound bool

	for i := range entries {
		curr := &entries[i]
		if curr.Lost {
			numFailure++
			continue
		}

		data = append(data, float64(curr.Latency))

		if !extremeFound || curr.Latency < best {
			best = curr.Latency
		}
		if !extremeFound || curr.Latency > worst {
			worst = curr.Latency
		}

		extremeFound = true
		total += float64(curr.Latency)
	}

	if numFailure < numTotal {
		size := numTotal - numFailure
		mean = total / float64(size)
		for _, rtt := range data {
			sumSquares += math.Pow(rtt-mean, 2)
		}
		stddev = time.Duration(math.Sqrt(sumSquares / float64(size)))

		sort.Float64s(data)
		if size%2 == 0 {
			median = time.Duration((data[size/2-1] + data[size/2]) / 2)
		} else {
			median = time.Duration(data[size/2])
		}
	}

	return &Metrics{
		PacketsSent: numTotal,
		PacketsLost: numFailure,
		Last:        entries[numTotal-1].Outcome,
		Best:        best,
		Worst:       worst,
		Median:      median,
		Mean:        time.Duration(mean),
		StdDev:      stddev,
	}
}
