package wsdiscovery

import (
	"fmt"
	"net"
	"runtime"
	"time"
)

const (
	// DefaultTimeout is the receive window of one probe session
	DefaultTimeout = 20 * time.Second

	// DefaultPort is the WS-Discovery well-known UDP port
	DefaultPort = 3702

	// MulticastIPv4 is the WS-Discovery IPv4 multicast group
	MulticastIPv4 = "239.255.255.250"

	// MulticastIPv6 is the link-local IPv6 group. Discovery is IPv4 only.
	MulticastIPv6 = "[ff02::c]"

	defaultPortBase   = 40000
	defaultPortSpan   = 20000
	defaultBufferSize = 4096
)

// Config holds every tunable of a Discoverer. It is copied into the
// Discoverer on construction and never changed afterwards.
type Config struct {
	// Timeout bounds the receive window of every session
	Timeout time.Duration

	// Target is where the probe is sent
	Target *net.UDPAddr

	// PortBase and PortSpan define the ephemeral bind range [PortBase, PortBase+PortSpan)
	PortBase int
	PortSpan int

	// BufferSize is the read buffer for one datagram
	BufferSize int

	MulticastTTL      int
	MulticastLoopback bool

	// Parallelism caps the number of sessions running at once
	Parallelism int

	// StrictParse ends a session at the first malformed datagram and drops a
	// source entirely when one of its endpoints is not a valid URL.
	StrictParse bool
}

// DefaultConfig returns the configuration used by the package level functions
func DefaultConfig() Config {
	return Config{
		Timeout:           DefaultTimeout,
		Target:            &net.UDPAddr{IP: net.ParseIP(MulticastIPv4), Port: DefaultPort},
		PortBase:          defaultPortBase,
		PortSpan:          defaultPortSpan,
		BufferSize:        defaultBufferSize,
		MulticastTTL:      1,
		MulticastLoopback: true,
		Parallelism:       runtime.NumCPU(),
	}
}

// Validate reports the first invalid field
func (c Config) Validate() error {
	switch {
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidConfig, c.Timeout)
	case c.Target == nil:
		return fmt.Errorf("%w: target address is required", ErrInvalidConfig)
	case c.PortSpan <= 0:
		return fmt.Errorf("%w: port span must be positive, got %d", ErrInvalidConfig, c.PortSpan)
	case c.PortBase <= 0 || c.PortBase+c.PortSpan > 65536:
		return fmt.Errorf("%w: port range [%d, %d) out of bounds", ErrInvalidConfig, c.PortBase, c.PortBase+c.PortSpan)
	case c.BufferSize <= 0:
		return fmt.Errorf("%w: buffer size must be positive, got %d", ErrInvalidConfig, c.BufferSize)
	case c.Parallelism <= 0:
		return fmt.Errorf("%w: parallelism must be positive, got %d", ErrInvalidConfig, c.Parallelism)
	}
	return nil
}
