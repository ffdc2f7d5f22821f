package main

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/digineo/pingpanel/monitor"
)

const tsDividend = float64(time.Millisecond) / float64(time.Nanosecond)

func ts(dur time.Duration) string {
	if 10*time.Microsecond < dur && dur < time.Second {
		return fmt.Sprintf("%0.2fms", float64(dur.Nanoseconds())/tsDividend)
	}
	return dur.String()
}

// sparkBlocks are block characters for 8-level vertical resolution (lowest to highest).
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// sparkline renders the runs of a plot window as one column per probe.
// Lost probes and not yet recorded positions stay blank.
func sparkline(runs [][]monitor.Point, window int) string {
	if window <= 0 {
		return ""
	}

	cols := []rune(strings.Repeat(" ", window))

	var minVal, maxVal float64
	first := true
	for _, run := range runs {
		for _, p := range run {
			if first || p.Latency < minVal {
				minVal = p.Latency
			}
			if first || p.Latency > maxVal {
				maxVal = p.Latency
			}
			first = false
		}
	}

	top := len(sparkBlocks) - 1
	for _, run := range runs {
		for _, p := range run {
			if p.Index < 0 || p.Index >= window {
				continue
			}
			level := top / 2
			if maxVal > minVal {
				level = int((p.Latency-minVal)/(maxVal-minVal)*float64(top) + 0.5)
			}
			cols[p.Index] = sparkBlocks[level]
		}
	}

	return string(cols)
}

// loss formats the share of lost probes.
func loss(m *monitor.Metrics) string {
	return fmt.Sprintf("%0.2f%%", 100*m.Loss())
}

// last formats the most recent outcome.
func last(m *monitor.Metrics) string {
	if m.Last.Lost {
		return "lost"
	}
	return ts(m.Last.Latency)
}

// addressURL returns the web interface URL of a target address.
func addressURL(address string) string {
	host := address
	if ip := net.ParseIP(address); ip != nil && ip.To4() == nil {
		host = "[" + address + "]"
	}
	return (&url.URL{Scheme: "http", Host: host, Path: "/"}).String()
}
