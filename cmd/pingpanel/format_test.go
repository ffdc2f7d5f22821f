package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/digineo/pingpanel/monitor"
)

func TestTs(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("12.34ms", ts(12340*time.Microsecond))
	assert.Equal("5µs", ts(5*time.Microsecond))
	assert.Equal("1.5s", ts(1500*time.Millisecond))
	assert.Equal("0s", ts(0))
}

func TestSparkline(t *testing.T) {
	assert := assert.New(t)

	runs := [][]monitor.Point{
		{{Index: 0, Latency: 0.010}},
		{{Index: 2, Latency: 0.016}, {Index: 3, Latency: 0.030}},
	}
	assert.Equal("▁ ▃█ ", sparkline(runs, 5))

	// constant latency sits in the middle
	assert.Equal("▄▄", sparkline([][]monitor.Point{{{Index: 0, Latency: 1}, {Index: 1, Latency: 1}}}, 2))

	assert.Equal("   ", sparkline(nil, 3))
	assert.Equal("", sparkline(runs, 0))
}

func TestSparklineFromHistory(t *testing.T) {
	h := monitor.NewHistory(4)
	now := time.Now()
	h.Add(now, monitor.Failure())
	h.Add(now, monitor.Success(time.Millisecond))
	h.Add(now, monitor.Failure())

	assert.Equal(t, " ▄  ", sparkline(h.Segments(4), 4))
}

func TestLossAndLast(t *testing.T) {
	assert := assert.New(t)

	m := &monitor.Metrics{PacketsSent: 4, PacketsLost: 1, Last: monitor.Failure()}
	assert.Equal("25.00%", loss(m))
	assert.Equal("lost", last(m))

	m.Last = monitor.Success(2 * time.Millisecond)
	assert.Equal("2.00ms", last(m))
}

func TestAddressURL(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("http://192.168.1.1/", addressURL("192.168.1.1"))
	assert.Equal("http://router.lan/", addressURL("router.lan"))
	assert.Equal("http://[fe80::1]/", addressURL("fe80::1"))
}
