package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrNoAddress is wrapped by a ResolutionError when the lookup succeeded
// but yielded nothing.
var ErrNoAddress = errors.New("no address found")

// ResolutionError is returned when a host cannot be turned into an address.
type ResolutionError struct {
	Host string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Host, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// A Resolver turns a host name or literal IP address into a single
// network address.
type Resolver interface {
	Resolve(ctx context.Context, host string) (*net.IPAddr, error)
}

// DNSResolver resolves through the system resolver. It neither caches nor
// retries, so address changes are picked up by the next lookup.
type DNSResolver struct {
	Timeout time.Duration // upper bound for a single lookup, 0 means none

	resolver *net.Resolver
}

// NewDNSResolver returns a DNSResolver using net.DefaultResolver.
func NewDNSResolver(timeout time.Duration) *DNSResolver {
	return &DNSResolver{
		Timeout:  timeout,
		resolver: net.DefaultResolver,
	}
}

// Resolve returns the first address the lookup yields. Literal addresses
// resolve to themselves.
func (r *DNSResolver) Resolve(ctx context.Context, host string) (*net.IPAddr, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	resolver := r.resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, &ResolutionError{Host: host, Err: err}
	}
	if len(addrs) == 0 {
		return nil, &ResolutionError{Host: host, Err: ErrNoAddress}
	}

	return &addrs[0], nil
}
