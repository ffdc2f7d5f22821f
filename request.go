package ping

import (
	"net"
	"time"
)

// A request is a currently running ICMP echo request waiting for an answer.
type request struct {
	remote net.IPAddr
	wait   chan struct{}
	result error
	tStart time.Time  // when was this packet sent?
	tEnd   *time.Time // when did we receive an answer?
}

func newRequest(remote net.IPAddr) *request {
	return &request{
		remote: remote,
		wait:   make(chan struct{}),
	}
}

// respond is responsible for finishing this request. It takes an error
// as failure reason and the receive time.
func (req *request) respond(err error, tRecv *time.Time) {
	req.result = err
	req.tEnd = tRecv
	close(req.wait)
}

// roundTripTime returns the time between sending and receiving.
func (req *request) roundTripTime() (time.Duration, error) {
	if req.result != nil {
		return 0, req.result
	}
	if req.tEnd == nil {
		return 0, errNoRequest
	}
	return req.tEnd.Sub(req.tStart), nil
}
