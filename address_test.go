package wsdiscovery

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ipNet(cidr string) *net.IPNet {
	ip, n, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(err)
	}
	n.IP = ip
	return n
}

func listing(itfs ...Interface) func() ([]Interface, error) {
	return func() ([]Interface, error) { return itfs, nil }
}

func fallbackTo(ip string) func() (net.IP, error) {
	return func() (net.IP, error) { return net.ParseIP(ip), nil }
}

func ipStrings(ips []net.IP) []string {
	result := make([]string, len(ips))
	for i, ip := range ips {
		result[i] = ip.String()
	}
	return result
}

func TestAddressEnumerator_Candidates(t *testing.T) {
	up := net.FlagUp | net.FlagMulticast

	e := &AddressEnumerator{
		Interfaces: listing(
			Interface{Name: "lo", Flags: net.FlagUp | net.FlagLoopback, Addrs: []net.Addr{ipNet("127.0.0.1/8"), ipNet("10.9.9.9/8")}},
			Interface{Name: "eth0", Flags: up, Addrs: []net.Addr{
				ipNet("192.168.1.10/24"),
				ipNet("8.8.8.8/32"),
				ipNet("fe80::1/64"),
				ipNet("fd00::1/64"),
			}},
			Interface{Name: "eth1", Flags: up, Addrs: []net.Addr{&net.IPAddr{IP: net.ParseIP("172.16.4.2")}}},
			Interface{Name: "eth2", Flags: net.FlagMulticast, Addrs: []net.Addr{ipNet("10.1.1.1/24")}},
			Interface{Name: "eth3", Flags: up, Addrs: []net.Addr{ipNet("192.168.1.10/24"), ipNet("127.0.0.2/8")}},
		),
		LocalHost: fallbackTo("10.0.0.99"),
	}

	assert.Equal(t, []string{"192.168.1.10", "172.16.4.2"}, ipStrings(e.Candidates()))
}

func TestAddressEnumerator_Fallback(t *testing.T) {
	tests := []struct {
		name       string
		interfaces func() ([]Interface, error)
	}{
		{name: "no interfaces", interfaces: listing()},
		{name: "only public addresses", interfaces: listing(Interface{Name: "eth0", Flags: net.FlagUp, Addrs: []net.Addr{ipNet("203.0.113.7/24")}})},
		{name: "listing error", interfaces: func() ([]Interface, error) { return nil, errors.New("netlink unavailable") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &AddressEnumerator{Interfaces: tt.interfaces, LocalHost: fallbackTo("10.0.0.99")}
			assert.Equal(t, []string{"10.0.0.99"}, ipStrings(e.Candidates()))
		})
	}
}

func TestAddressEnumerator_FallbackFails(t *testing.T) {
	e := &AddressEnumerator{
		Interfaces: listing(),
		LocalHost:  func() (net.IP, error) { return nil, errors.New("no host name") },
	}

	assert.Empty(t, e.Candidates())
}
