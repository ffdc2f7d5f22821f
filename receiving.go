package ping

import (
	"net"
	"time"

	"golang.org/x/net/icmp"
)

// process will finish a currently running Echo Request, if the body is
// an ICMP Echo reply from the pinged host, or an error quoting one of
// our Echo Requests (which may come from any router on the path).
func (pinger *Pinger) process(body *icmp.Echo, icmpError error, addr net.IPAddr, tRecv *time.Time) {
	seq := uint16(body.Seq)

	// search for existing running echo request; the first answer wins
	pinger.mtx.Lock()
	req := pinger.requests[seq]
	if req != nil && icmpError == nil && !req.remote.IP.Equal(addr.IP) {
		pinger.mtx.Unlock()
		log.Infof("ignoring echo reply %d from %s, expected %s", seq, addr.IP, req.remote.IP)
		return
	}
	delete(pinger.requests, seq)
	pinger.mtx.Unlock()

	if req == nil {
		return
	}

	if icmpError != nil {
		req.respond(&ICMPError{Source: addr, Message: icmpError.Error()}, nil)
		return
	}
	req.respond(nil, tRecv)
}
