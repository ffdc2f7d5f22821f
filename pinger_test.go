package ping

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/icmp"
)

func TestPinger(t *testing.T) {
	assert := assert.New(t)

	pinger, err := New("0.0.0.0", "::", false)
	if err != nil {
		t.Skipf("unable to open unprivileged ICMP sockets: %v", err)
	}
	require.NotNil(t, pinger)
	defer pinger.Close()

	pinger.SetPayloadSize(56)
	assert.EqualValues(56, pinger.PayloadSize())

	for _, target := range []string{"127.0.0.1", "::1"} {
		rtt, err := pinger.PingAttempts(&net.IPAddr{IP: net.ParseIP(target)}, time.Second, 2)
		assert.NoError(err, target)
		assert.NotZero(rtt, target)
	}
}

func TestNewWithoutBindAddress(t *testing.T) {
	_, err := New("", "", false)
	assert.ErrorIs(t, err, ErrNotBound)
}

func newTestPinger() *Pinger {
	return &Pinger{
		Attempts: 1,
		Timeout:  50 * time.Millisecond,
		requests: make(map[uint16]*request),
	}
}

func TestProcessReply(t *testing.T) {
	assert := assert.New(t)
	pinger := newTestPinger()

	remote := net.IPAddr{IP: net.ParseIP("192.0.2.1")}
	req := newRequest(remote)
	req.tStart = time.Now()
	pinger.requests[7] = req

	tRecv := req.tStart.Add(12 * time.Millisecond)
	pinger.process(&icmp.Echo{Seq: 7}, nil, remote, &tRecv)

	<-req.wait
	rtt, err := req.roundTripTime()
	assert.NoError(err)
	assert.Equal(12*time.Millisecond, rtt)
	assert.Empty(pinger.requests)

	// a duplicate reply finds no request
	pinger.process(&icmp.Echo{Seq: 7}, nil, remote, &tRecv)
}

func TestProcessReplyFromOtherHost(t *testing.T) {
	assert := assert.New(t)
	pinger := newTestPinger()

	req := newRequest(net.IPAddr{IP: net.ParseIP("192.0.2.1")})
	req.tStart = time.Now()
	pinger.requests[7] = req

	tRecv := req.tStart.Add(20 * time.Millisecond)
	pinger.process(&icmp.Echo{Seq: 7}, nil, net.IPAddr{IP: net.ParseIP("198.51.100.9")}, &tRecv)

	select {
	case <-req.wait:
		assert.Fail("request completed by a reply from another host")
	default:
	}
	assert.Contains(pinger.requests, uint16(7))

	// the pinged host answers later on
	tRecv = req.tStart.Add(30 * time.Millisecond)
	pinger.process(&icmp.Echo{Seq: 7}, nil, net.IPAddr{IP: net.ParseIP("192.0.2.1")}, &tRecv)

	<-req.wait
	rtt, err := req.roundTripTime()
	assert.NoError(err)
	assert.Equal(30*time.Millisecond, rtt)
}

func TestProcessUnreachable(t *testing.T) {
	assert := assert.New(t)
	pinger := newTestPinger()

	req := newRequest(net.IPAddr{IP: net.ParseIP("203.0.113.5")})
	pinger.requests[9] = req

	// routers on the path report errors from their own address
	src := net.IPAddr{IP: net.ParseIP("192.0.2.1")}
	pinger.process(&icmp.Echo{Seq: 9}, errors.New("destination unreachable"), src, nil)

	<-req.wait
	_, err := req.roundTripTime()

	var icmpErr *ICMPError
	if assert.ErrorAs(err, &icmpErr) {
		assert.Equal("192.0.2.1", icmpErr.Source.String())
	}
	assert.False(IsTimeout(err))
}

func TestOnceMissingSocket(t *testing.T) {
	pinger := newTestPinger()

	_, err := pinger.PingContext(context.Background(), &net.IPAddr{IP: net.ParseIP("192.0.2.1")})
	assert.Error(t, err)
	assert.Empty(t, pinger.requests)
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(&timeoutError{}))
	assert.False(t, IsTimeout(errNoRequest))
}
