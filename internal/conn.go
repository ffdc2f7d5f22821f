package internal

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	// ProtocolICMP is the number of the Internet Control Message Protocol
	// (see golang.org/x/net/internal/iana.ProtocolICMP)
	ProtocolICMP = 1

	// ProtocolICMPv6 is the IPv6 Next Header value for ICMPv6
	// see golang.org/x/net/internal/iana.ProtocolIPv6ICMP
	ProtocolICMPv6 = 58
)

var (
	// ErrNotBound is returned by Open when neither bind address is given.
	ErrNotBound = errors.New("need at least one bind address")

	// ErrSocketMissing is returned by WriteTo when no socket for the
	// address family of the destination is open.
	ErrSocketMissing = errors.New("socket missing")

	id = os.Getpid() & 0xffff
)

// Receiver is called for every Echo Reply and for every Destination
// Unreachable message quoting one of our Echo Requests. For the latter,
// icmpError is set and tRecv is nil. On privileged sockets, messages
// carrying a foreign echo identifier are dropped before.
type Receiver func(body *icmp.Echo, icmpError error, addr net.IPAddr, tRecv *time.Time)

// Conn wraps the IPv4 and IPv6 ICMP sockets.
type Conn struct {
	Receiver   Receiver
	Privileged bool

	conn4 net.PacketConn
	conn6 net.PacketConn
	wg    sync.WaitGroup
}

// Open binds the sockets and starts the receiving logic. An empty bind
// address disables the corresponding address family. You'll need to call
// Close() to cleanup.
func (c *Conn) Open(bind4, bind6 string) error {
	var err error
	var network4, network6 string

	if c.Privileged {
		network4 = "ip4:icmp"
		network6 = "ip6:ipv6-icmp"
	} else {
		network4 = "udp4"
		network6 = "udp6"
	}

	// open sockets
	c.conn4, err = connectICMP(network4, bind4)
	if err != nil {
		return fmt.Errorf("listen %s %s: %w", network4, bind4, err)
	}

	c.conn6, err = connectICMP(network6, bind6)
	if err != nil {
		if c.conn4 != nil {
			c.conn4.Close()
			c.conn4 = nil
		}
		return fmt.Errorf("listen %s %s: %w", network6, bind6, err)
	}

	if c.conn4 == nil && c.conn6 == nil {
		return ErrNotBound
	}

	if c.conn4 != nil {
		c.wg.Add(1)
		go c.receiver(ProtocolICMP, c.conn4)
	}
	if c.conn6 != nil {
		c.wg.Add(1)
		go c.receiver(ProtocolICMPv6, c.conn6)
	}

	return nil
}

// Close shuts both sockets down and waits for the receivers to finish.
func (c *Conn) Close() {
	if c.conn4 != nil {
		c.conn4.Close()
	}
	if c.conn6 != nil {
		c.conn6.Close()
	}
	c.wg.Wait()
}

// Supports reports whether a socket for the address family of ip is open.
func (c *Conn) Supports(ip net.IP) bool {
	if ip.To4() != nil {
		return c.conn4 != nil
	}
	return c.conn6 != nil
}

// receiver listens on the socket and hands every parsed message to receive.
func (c *Conn) receiver(proto int, conn net.PacketConn) {
	defer c.wg.Done()
	rb := make([]byte, 1500)

	// read incoming packets
	for {
		n, source, err := conn.ReadFrom(rb)
		if err != nil {
			if netErr, ok := err.(net.Error); !ok || !netErr.Timeout() {
				break // socket gone
			}
			continue
		}

		var ipAddr net.IPAddr

		switch addr := source.(type) {
		case *net.UDPAddr:
			ipAddr.IP = addr.IP
			ipAddr.Zone = addr.Zone
		case *net.IPAddr:
			ipAddr = *addr
		}

		c.receive(proto, rb[:n], ipAddr, time.Now())
	}
}

// receive takes the raw message and tries to evaluate an ICMP response.
// If that succeeds, the body will be given to the Receiver.
func (c *Conn) receive(proto int, bytes []byte, addr net.IPAddr, t time.Time) {
	// parse message
	m, err := icmp.ParseMessage(proto, bytes)
	if err != nil {
		return
	}

	// evaluate message
	switch m.Type {
	case ipv4.ICMPTypeEchoReply, ipv6.ICMPTypeEchoReply:
		echo, ok := m.Body.(*icmp.Echo)
		if !ok || echo == nil || !c.ours(echo) {
			return
		}
		c.Receiver(echo, nil, addr, &t)

	case ipv4.ICMPTypeDestinationUnreachable, ipv6.ICMPTypeDestinationUnreachable:
		body, ok := m.Body.(*icmp.DstUnreach)
		if !ok || body == nil {
			return
		}

		var bodyData []byte
		switch proto {
		case ProtocolICMP:
			// parse header of original IPv4 packet
			hdr, err := ipv4.ParseHeader(body.Data)
			if err != nil {
				return
			}
			bodyData = body.Data[hdr.Len:]
		case ProtocolICMPv6:
			// parse header of original IPv6 packet (we don't need the actual
			// header, but want to detect parsing errors)
			_, err := ipv6.ParseHeader(body.Data)
			if err != nil {
				return
			}
			bodyData = body.Data[ipv6.HeaderLen:]
		default:
			return
		}

		// parse ICMP message after the IP header
		msg, err := icmp.ParseMessage(proto, bodyData)
		if err != nil {
			return
		}

		echo, ok := msg.Body.(*icmp.Echo)
		if !ok || echo == nil {
			Logger.Infof("expected *icmp.Echo, got %#v", msg)
			return
		}
		if !c.ours(echo) {
			return
		}

		c.Receiver(echo, fmt.Errorf("%v", m.Type), addr, nil)
	}
}

// ours reports whether echo belongs to one of our requests. Raw sockets
// see the replies to every process on the host, while unprivileged
// sockets only get their own (with an identifier rewritten by the kernel).
func (c *Conn) ours(echo *icmp.Echo) bool {
	return !c.Privileged || echo.ID == id
}

// WriteTo marshals an Echo Request with the given sequence number and
// payload, and sends it to addr.
func (c *Conn) WriteTo(addr *net.IPAddr, seq int, data []byte) error {
	echo := icmp.Echo{
		Seq:  seq,
		Data: data,
	}
	msg := icmp.Message{
		Code: 0,
		Body: &echo,
	}

	var conn net.PacketConn
	if addr.IP.To4() != nil {
		msg.Type = ipv4.ICMPTypeEcho
		conn = c.conn4
	} else {
		msg.Type = ipv6.ICMPTypeEchoRequest
		conn = c.conn6
	}

	// unprivileged sockets get their ID assigned by the kernel
	if c.Privileged {
		echo.ID = id
	}

	if conn == nil {
		return ErrSocketMissing
	}

	// serialize packet
	wb, err := msg.Marshal(nil)
	if err != nil {
		return err
	}

	// send request
	if c.Privileged {
		_, err = conn.WriteTo(wb, addr)
	} else {
		_, err = conn.WriteTo(wb, &net.UDPAddr{
			IP:   addr.IP,
			Zone: addr.Zone,
		})
	}

	return err
}

// connectICMP opens a new ICMP connection, if network and address are not empty.
func connectICMP(network, address string) (net.PacketConn, error) {
	if network == "" || address == "" {
		return nil, nil
	}

	conn, err := icmp.ListenPacket(network, address)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
