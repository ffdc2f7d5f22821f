package ping

import (
	"errors"
	"fmt"
	"net"
)

// errNoRequest is returned for a request that finished without a
// receive time.
var errNoRequest = errors.New("no running request")

// ICMPError is returned when the remote (or a router on the path) answers
// an Echo Request with an ICMP error message, e.g. Destination Unreachable.
type ICMPError struct {
	Source  net.IPAddr
	Message string
}

func (e *ICMPError) Error() string {
	return fmt.Sprintf("%s from %s", e.Message, e.Source.String())
}

// timeoutError implements the net.Error interface. Originally taken from
// https://github.com/golang/go/blob/release-branch.go1.8/src/net/net.go#L505-L509
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

// IsTimeout reports whether err is a timeout waiting for an Echo Reply.
func IsTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
