package wsdiscovery

import (
	"net"
	"os"

	"github.com/golang/glog"
)

// Interface is the part of a network interface the enumerator looks at
type Interface struct {
	Name  string
	Flags net.Flags
	Addrs []net.Addr
}

// AddressEnumerator lists the local IPv4 addresses a probe can be sent from
type AddressEnumerator struct {
	// Interfaces lists the host's interfaces. Defaults to the system list.
	Interfaces func() ([]Interface, error)

	// LocalHost resolves the host's default address, used when no
	// interface qualifies. Defaults to a lookup of the host name.
	LocalHost func() (net.IP, error)
}

// Candidates returns every site-local IPv4 address on an up, non-loopback
// interface, or the host's default address when there is none. Listing
// errors are treated as an empty interface list.
func (e *AddressEnumerator) Candidates() []net.IP {
	list := e.Interfaces
	if list == nil {
		list = systemInterfaces
	}

	var candidates []net.IP
	seen := make(map[string]bool)

	interfaces, err := list()
	if err != nil {
		glog.V(2).Infof("List network interfaces error %v", err)
	}

	for _, itf := range interfaces {
		if itf.Flags&net.FlagLoopback != 0 || itf.Flags&net.FlagUp == 0 {
			continue
		}
		for _, addr := range itf.Addrs {
			ip := addrIP(addr)
			if ip == nil || ip.IsLoopback() || !ip.IsPrivate() {
				continue
			}
			ip4 := ip.To4()
			if ip4 == nil || seen[ip4.String()] {
				continue
			}
			seen[ip4.String()] = true
			candidates = append(candidates, ip4)
		}
	}

	if len(candidates) > 0 {
		return candidates
	}

	localHost := e.LocalHost
	if localHost == nil {
		localHost = hostAddress
	}
	ip, err := localHost()
	if err != nil || ip == nil {
		glog.V(2).Infof("Resolve local host address error %v", err)
		return nil
	}
	glog.V(2).Infof("No site-local interface found, falling back to %s", ip)
	return []net.IP{ip}
}

func addrIP(addr net.Addr) net.IP {
	switch v := addr.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	}
	return nil
}

func systemInterfaces() ([]Interface, error) {
	itfs, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	result := make([]Interface, 0, len(itfs))
	for _, itf := range itfs {
		addrs, err := itf.Addrs()
		if err != nil {
			glog.V(2).Infof("Read addresses of %s error %v", itf.Name, err)
			continue
		}
		result = append(result, Interface{Name: itf.Name, Flags: itf.Flags, Addrs: addrs})
	}
	return result, nil
}

// hostAddress resolves the host name to its first IPv4 address
func hostAddress() (net.IP, error) {
	name, err := os.Hostname()
	if err != nil {
		return nil, err
	}

	ips, err := net.LookupIP(name)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return nil, &net.AddrError{Err: "no IPv4 address for host", Addr: name}
}
