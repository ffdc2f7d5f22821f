package ping

import (
	"context"
	"net"
	"sync/atomic"
	"time"
)

// Ping sends ICMP echo requests, retrying upto Pinger.Attempts times.
// Will finish early on success.
func (pinger *Pinger) Ping(remote *net.IPAddr) (err error) {
	_, err = pinger.PingRTT(remote)
	return
}

// PingRTT sends ICMP echo requests, retrying upto Pinger.Attempts times.
// Will finish early on success and return the round trip time.
func (pinger *Pinger) PingRTT(remote *net.IPAddr) (time.Duration, error) {
	return pinger.PingAttempts(remote, pinger.Timeout, int(pinger.Attempts))
}

// PingAttempts sends ICMP echo requests with a given timeout per request,
// retrying upto attempts times. Will finish early on success and return
// the round trip time of the last ping.
func (pinger *Pinger) PingAttempts(remote *net.IPAddr, timeout time.Duration, attempts int) (rtt time.Duration, err error) {
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if rtt, err = pinger.once(context.Background(), remote, timeout); err == nil {
			break // success
		}
	}
	return
}

// PingContext sends a single ICMP echo request and waits for the reply
// until ctx is done. Without a deadline on ctx, Pinger.Timeout applies.
func (pinger *Pinger) PingContext(ctx context.Context, remote *net.IPAddr) (time.Duration, error) {
	timeout := pinger.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	return pinger.once(ctx, remote, timeout)
}

// once sends a single Echo Request and waits for an answer. It returns
// the round trip time (RTT) if a reply is received in time.
func (pinger *Pinger) once(ctx context.Context, remote *net.IPAddr, timeout time.Duration) (time.Duration, error) {
	seq := uint16(atomic.AddUint32(&sequence, 1))
	req := newRequest(*remote)

	pinger.payloadMu.RLock()
	payload := pinger.payload
	pinger.payloadMu.RUnlock()

	// enqueue in currently running requests
	pinger.mtx.Lock()
	pinger.requests[seq] = req
	pinger.mtx.Unlock()

	// start measurement (tEnd is set in the receiving end)
	req.tStart = time.Now()

	// send request
	if err := pinger.conn.WriteTo(remote, int(seq), payload); err != nil {
		log.Errorf("unable to write to %v: %v", remote, err)
		pinger.dequeue(seq)
		return 0, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// wait for answer
	var err error
	select {
	case <-req.wait:
		return req.roundTripTime()
	case <-timer.C:
		err = &timeoutError{}
	case <-ctx.Done():
		err = ctx.Err()
	}

	pinger.dequeue(seq)
	return 0, err
}

func (pinger *Pinger) dequeue(seq uint16) {
	pinger.mtx.Lock()
	delete(pinger.requests, seq)
	pinger.mtx.Unlock()
}
