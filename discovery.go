package wsdiscovery

import (
	"context"
	"net"
	"net/url"
	"sync"

	"github.com/golang/glog"
	"github.com/panjf2000/ants/v2"
)

// AddressSource provides the local addresses to probe from
type AddressSource interface {
	Candidates() []net.IP
}

// Discoverer runs WS-Discovery probes from every local address
type Discoverer struct {
	cfg       Config
	addresses AddressSource
}

// Option customizes a Discoverer
type Option func(*Discoverer)

// WithAddressSource replaces the interface enumerator
func WithAddressSource(src AddressSource) Option {
	return func(d *Discoverer) {
		d.addresses = src
	}
}

// NewDiscoverer creates a Discoverer for a validated config
func NewDiscoverer(cfg Config, opts ...Option) (*Discoverer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Discoverer{cfg: cfg, addresses: &AddressEnumerator{}}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns a copy of the discoverer's configuration
func (d *Discoverer) Config() Config {
	return d.cfg
}

// probeAll starts one session per candidate address on a pool bounded by
// the configured parallelism. The channel is closed after every session
// has reported.
func (d *Discoverer) probeAll(ctx context.Context) <-chan SessionResult {
	candidates := d.addresses.Candidates()
	results := make(chan SessionResult, len(candidates))
	if len(candidates) == 0 {
		glog.V(2).Info("No candidate address to probe from")
		close(results)
		return results
	}

	size := d.cfg.Parallelism
	if size > len(candidates) {
		size = len(candidates)
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		glog.Warningf("Create probe pool error %v", err)
		close(results)
		return results
	}

	go func() {
		var wg sync.WaitGroup
		for _, ip := range candidates {
			source := ip
			wg.Add(1)
			err := pool.Submit(func() {
				defer wg.Done()
				if ctx.Err() != nil {
					results <- SessionResult{Source: source.String(), Err: ctx.Err()}
					return
				}
				glog.V(2).Infof("Discovery by %s", source)
				results <- newSession(d.cfg, source).run(ctx)
			})
			if err != nil {
				wg.Done()
				results <- SessionResult{Source: source.String(), Err: err}
			}
		}
		wg.Wait()
		pool.Release()
		close(results)
	}()

	return results
}

// outcomeOf turns a session result into an outcome, or reports false when
// the session found nothing usable.
func (d *Discoverer) outcomeOf(res SessionResult) (*Outcome, bool) {
	switch res.Status() {
	case Failed:
		glog.V(2).Infof("Failed to process discovery from %s, error: %v", res.Source, res.Err)
		return nil, false
	case NotFound:
		return nil, false
	}
	if res.Err != nil {
		glog.V(2).Infof("Discovery from %s ended early, error: %v", res.Source, res.Err)
	}

	urls, err := parseEndpoints(res.Endpoints, d.cfg.StrictParse)
	if err != nil {
		glog.Warningf("Discard discovery from %s: %v", res.Source, err)
		return nil, false
	}
	if len(urls) == 0 {
		return nil, false
	}
	return NewOutcome(res.Source, urls), true
}

// discover returns the first session outcome, by completion, holding at
// least one endpoint. Sessions still running are cancelled.
func (d *Discoverer) discover(ctx context.Context) (*Outcome, bool) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for res := range d.probeAll(ctx) {
		if outcome, ok := d.outcomeOf(res); ok {
			return outcome, true
		}
	}
	return nil, false
}

// DiscoverOutcomes waits for every session and returns each non-empty
// outcome, one per source address.
func (d *Discoverer) DiscoverOutcomes(ctx context.Context) []*Outcome {
	var outcomes []*Outcome
	for res := range d.probeAll(ctx) {
		if outcome, ok := d.outcomeOf(res); ok {
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes
}

// DiscoverAll returns every endpoint of the winning source. Unlike
// DiscoverFiltered with empty patterns, endpoints with an empty path are kept.
func (d *Discoverer) DiscoverAll(ctx context.Context) []*url.URL {
	outcome, ok := d.discover(ctx)
	if !ok {
		return []*url.URL{}
	}
	return outcome.Endpoints()
}

// DiscoverFiltered returns the endpoints of the winning source whose scheme
// matches protocol and whose path matches path.
func (d *Discoverer) DiscoverFiltered(ctx context.Context, protocol, path string) []*url.URL {
	outcome, ok := d.discover(ctx)
	if !ok {
		return []*url.URL{}
	}
	return outcome.Narrow(SchemePathFilter(protocol, path)).Endpoints()
}

// DiscoverByHost returns the winning outcome narrowed to endpoints on host
// ip. The source address stays the one the probe was sent from.
func (d *Discoverer) DiscoverByHost(ctx context.Context, ip string) (*Outcome, bool) {
	return d.narrowed(ctx, HostFilter(ip))
}

// DiscoverFilteredOutcome is DiscoverFiltered keeping the source address
func (d *Discoverer) DiscoverFilteredOutcome(ctx context.Context, protocol, path string) (*Outcome, bool) {
	return d.narrowed(ctx, SchemePathFilter(protocol, path))
}

func (d *Discoverer) narrowed(ctx context.Context, keep func(*url.URL) bool) (*Outcome, bool) {
	outcome, ok := d.discover(ctx)
	if !ok {
		return nil, false
	}
	narrowed := outcome.Narrow(keep)
	if narrowed.Len() == 0 {
		return nil, false
	}
	return narrowed, true
}

func defaultDiscoverer() *Discoverer {
	d, err := NewDiscoverer(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return d
}

// DiscoverAll runs DiscoverAll with the default configuration
func DiscoverAll(ctx context.Context) []*url.URL {
	return defaultDiscoverer().DiscoverAll(ctx)
}

// DiscoverFiltered runs DiscoverFiltered with the default configuration
func DiscoverFiltered(ctx context.Context, protocol, path string) []*url.URL {
	return defaultDiscoverer().DiscoverFiltered(ctx, protocol, path)
}

// DiscoverByHost runs DiscoverByHost with the default configuration
func DiscoverByHost(ctx context.Context, ip string) (*Outcome, bool) {
	return defaultDiscoverer().DiscoverByHost(ctx, ip)
}

// DiscoverFilteredOutcome runs DiscoverFilteredOutcome with the default configuration
func DiscoverFilteredOutcome(ctx context.Context, protocol, path string) (*Outcome, bool) {
	return defaultDiscoverer().DiscoverFilteredOutcome(ctx, protocol, path)
}
