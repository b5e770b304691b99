package wsdiscovery

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var loopback = net.IPv4(127, 0, 0, 1).To4()

// probeMatches builds a ProbeMatches envelope with one ProbeMatch per xaddrs value
func probeMatches(xaddrs ...string) []byte {
	var matches strings.Builder
	for i, x := range xaddrs {
		fmt.Fprintf(&matches,
			`<d:ProbeMatch><wsa:EndpointReference><wsa:Address>urn:uuid:device-%d</wsa:Address></wsa:EndpointReference>`+
				`<d:Types>dn:NetworkVideoTransmitter</d:Types><d:XAddrs>%s</d:XAddrs></d:ProbeMatch>`, i, x)
	}

	return []byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://www.w3.org/2003/05/soap-envelope" ` +
		`xmlns:wsa="http://schemas.xmlsoap.org/ws/2004/08/addressing" ` +
		`xmlns:d="http://schemas.xmlsoap.org/ws/2005/04/discovery" ` +
		`xmlns:dn="http://www.onvif.org/ver10/network/wsdl">` +
		`<SOAP-ENV:Header>` +
		`<wsa:MessageID>uuid:reply</wsa:MessageID>` +
		`<wsa:Action>http://schemas.xmlsoap.org/ws/2005/04/discovery/ProbeMatches</wsa:Action>` +
		`</SOAP-ENV:Header>` +
		`<SOAP-ENV:Body><d:ProbeMatches>` + matches.String() + `</d:ProbeMatches></SOAP-ENV:Body>` +
		`</SOAP-ENV:Envelope>`)
}

// responder answers every datagram it receives with a fixed list of replies
type responder struct {
	conn   *net.UDPConn
	probes chan []byte
}

func startResponder(t *testing.T, replies ...[]byte) *responder {
	t.Helper()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: loopback})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	r := &responder{conn: conn, probes: make(chan []byte, 16)}
	go func() {
		buffer := make([]byte, 64*1024)
		for {
			n, addr, err := conn.ReadFromUDP(buffer)
			if err != nil {
				return
			}
			select {
			case r.probes <- append([]byte(nil), buffer[:n]...):
			default:
			}
			for _, reply := range replies {
				_, _ = conn.WriteToUDP(reply, addr)
			}
		}
	}()
	return r
}

func (r *responder) addr() *net.UDPAddr {
	return r.conn.LocalAddr().(*net.UDPAddr)
}

// testConfig points the probe at a responder with a short window
func testConfig(target *net.UDPAddr) Config {
	cfg := DefaultConfig()
	cfg.Target = target
	cfg.Timeout = 300 * time.Millisecond
	return cfg
}

type staticSource []net.IP

func (s staticSource) Candidates() []net.IP {
	return s
}

func newTestDiscoverer(t *testing.T, cfg Config, sources ...net.IP) *Discoverer {
	t.Helper()

	d, err := NewDiscoverer(cfg, WithAddressSource(staticSource(sources)))
	require.NoError(t, err)
	return d
}
