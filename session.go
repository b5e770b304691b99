package wsdiscovery

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/ipv4"
)

const bindAttempts = 3

// Status classifies a session result
type Status int

const (
	NotFound Status = iota
	Found
	Failed
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Failed:
		return "failed"
	}
	return "not found"
}

// SessionResult is what one probe session produced. Endpoints collected
// before a receive or parse failure are kept.
type SessionResult struct {
	Source    string
	Endpoints []string
	Err       error
}

func (r SessionResult) Status() Status {
	switch {
	case len(r.Endpoints) > 0:
		return Found
	case r.Err != nil:
		return Failed
	}
	return NotFound
}

// session sends one probe from one source address and listens for replies
type session struct {
	cfg    Config
	source net.IP
}

func newSession(cfg Config, source net.IP) *session {
	return &session{cfg: cfg, source: source}
}

func (s *session) fail(stage Stage, err error) *SessionError {
	return &SessionError{Source: s.source.String(), Stage: stage, Err: err}
}

// run performs a full send/listen cycle. It returns once the receive window
// has elapsed or ctx is done, and always releases the socket.
func (s *session) run(ctx context.Context) SessionResult {
	result := SessionResult{Source: s.source.String()}

	conn, err := s.bind()
	if err != nil {
		result.Err = s.fail(StageBind, err)
		return result
	}
	defer conn.Close()

	s.tune(conn)

	found := make(map[string]struct{})
	ready := make(chan struct{})
	retire := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- s.listen(conn, ready, retire, found)
	}()

	// The listener must not read before the deadline is armed and the probe is out.
	if err := conn.SetReadDeadline(time.Now().Add(s.cfg.Timeout)); err != nil {
		close(retire)
		close(ready)
		<-done
		result.Err = s.fail(StageReceive, err)
		return result
	}

	probe := NewProbe()
	if _, err := conn.WriteToUDP(probe.Bytes(), s.cfg.Target); err != nil {
		close(retire)
		close(ready)
		<-done
		result.Err = s.fail(StageSend, err)
		return result
	}
	glog.V(2).Infof("Probe %s sent from %s to %s", probe.MessageID, conn.LocalAddr(), s.cfg.Target)
	close(ready)

	timer := time.NewTimer(s.cfg.Timeout)
	defer timer.Stop()

	select {
	case err = <-done:
	case <-timer.C:
		err = s.retire(conn, retire, done)
	case <-ctx.Done():
		err = s.retire(conn, retire, done)
	}

	result.Err = err
	for endpoint := range found {
		result.Endpoints = append(result.Endpoints, endpoint)
	}

	glog.V(2).Infof("Source ip %s -> found %d items", result.Source, len(result.Endpoints))
	return result
}

// retire stops the listener from starting new reads and waits for it to
// return. The deadline is pulled in to now so a read in flight returns at
// once instead of running out its own timeout; on cancellation this is what
// lets a session end before its window.
func (s *session) retire(conn *net.UDPConn, retire chan struct{}, done <-chan error) error {
	close(retire)
	if err := conn.SetReadDeadline(time.Now()); err != nil {
		glog.V(2).Infof("Reset read deadline on %s error %v", s.source, err)
	}
	return <-done
}

// listen is the only writer of found.
func (s *session) listen(conn *net.UDPConn, ready, retire <-chan struct{}, found map[string]struct{}) error {
	<-ready

	buffer := make([]byte, s.cfg.BufferSize)
	for {
		select {
		case <-retire:
			return nil
		default:
		}

		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return s.fail(StageReceive, err)
		}

		endpoints, err := ExtractEndpoints(buffer[:n])
		if err != nil {
			if s.cfg.StrictParse {
				return s.fail(StageParse, err)
			}
			glog.Warningf("Skip response from %s: %v", addr, err)
			continue
		}

		glog.V(2).Infof("Response from %s advertises %v", addr, endpoints)
		for _, endpoint := range endpoints {
			found[endpoint] = struct{}{}
		}
	}
}

// bind opens a UDP socket on the source address using a random port from
// the configured range.
func (s *session) bind() (*net.UDPConn, error) {
	var err error
	for i := 0; i < bindAttempts; i++ {
		local := &net.UDPAddr{IP: s.source, Port: s.cfg.PortBase + rand.Intn(s.cfg.PortSpan)}

		var conn *net.UDPConn
		conn, err = net.ListenUDP("udp4", local)
		if err == nil {
			return conn, nil
		}
		glog.V(2).Infof("Bind %s error %v", local, err)
	}
	return nil, err
}

// tune applies the multicast options. Failures only cost reachability.
func (s *session) tune(conn *net.UDPConn) {
	p := ipv4.NewPacketConn(conn)

	if err := p.SetMulticastTTL(s.cfg.MulticastTTL); err != nil {
		glog.V(2).Infof("Set multicast TTL on %s error %v", s.source, err)
	}
	if err := p.SetMulticastLoopback(s.cfg.MulticastLoopback); err != nil {
		glog.V(2).Infof("Set multicast loopback on %s error %v", s.source, err)
	}

	if itf := interfaceOf(s.source); itf != nil {
		if err := p.SetMulticastInterface(itf); err != nil {
			glog.V(2).Infof("Set multicast interface %s error %v", itf.Name, err)
		}
	}
}

// interfaceOf finds the interface holding ip
func interfaceOf(ip net.IP) *net.Interface {
	itfs, err := net.Interfaces()
	if err != nil {
		return nil
	}
	for i := range itfs {
		addrs, err := itfs[i].Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if a := addrIP(addr); a != nil && a.Equal(ip) {
				return &itfs[i]
			}
		}
	}
	return nil
}
