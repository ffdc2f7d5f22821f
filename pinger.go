package ping

import (
	"sync"
	"time"

	"github.com/digineo/pingpanel/internal"
)

// ErrNotBound is returned by New if neither bind address is given.
var ErrNotBound = internal.ErrNotBound

// sequence number for this process
var sequence uint32

// Pinger is a instance for ICMP echo requests
type Pinger struct {
	Attempts uint          // number of attempts
	Timeout  time.Duration // timeout per request

	requests map[uint16]*request // currently running requests
	mtx      sync.RWMutex        // lock for the requests map
	conn     internal.Conn

	payload   internal.Payload
	payloadMu sync.RWMutex
}

// New creates a new Pinger. This will open the ICMP sockets and start the
// receiving logic. An empty bind address disables that address family.
// Unprivileged mode uses datagram ICMP sockets, which on Linux requires
// the net.ipv4.ping_group_range sysctl to cover the running user.
// You'll need to call Close() to cleanup.
func New(bind4, bind6 string, privileged bool) (*Pinger, error) {
	pinger := Pinger{
		Attempts: 1,
		Timeout:  time.Second,
		requests: make(map[uint16]*request),
	}

	pinger.conn.Privileged = privileged
	pinger.conn.Receiver = pinger.process

	if err := pinger.conn.Open(bind4, bind6); err != nil {
		return nil, err
	}

	return &pinger, nil
}

// Close will close the ICMP sockets.
func (pinger *Pinger) Close() {
	pinger.conn.Close()
}

// SetPayloadSize resizes the additional payload of outgoing Echo Requests.
func (pinger *Pinger) SetPayloadSize(size uint16) {
	pinger.payloadMu.Lock()
	pinger.payload.Resize(size)
	pinger.payloadMu.Unlock()
}

// PayloadSize returns the current payload size.
func (pinger *Pinger) PayloadSize() uint16 {
	pinger.payloadMu.RLock()
	defer pinger.payloadMu.RUnlock()
	return uint16(len(pinger.payload))
}
