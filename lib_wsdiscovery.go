package wsdiscovery

import (
	"context"
	"encoding/json"
	"time"
)

// Result is the JSON envelope returned by the string API
type Result struct {
	Error string
	Data  interface{}
}

func encodeResult(result Result) string {
	str, err := json.Marshal(result)
	if err != nil {
		str, _ = json.Marshal(Result{Error: err.Error()})
	}
	return string(str)
}

// discovererFor builds a Discoverer whose receive window is duration
// milliseconds, or the default window when duration is not positive.
func discovererFor(duration int) (*Discoverer, error) {
	cfg := DefaultConfig()
	if duration > 0 {
		cfg.Timeout = time.Duration(duration) * time.Millisecond
	}
	return NewDiscoverer(cfg)
}

// DiscoveryEndpoints returns the filtered endpoints of the winning source as
// a JSON array of strings.
func DiscoveryEndpoints(protocol, path string, duration int) string {
	d, err := discovererFor(duration)
	if err != nil {
		return encodeResult(Result{Error: err.Error()})
	}

	urls := d.DiscoverFiltered(context.Background(), protocol, path)
	endpoints := make([]string, len(urls))
	for i, u := range urls {
		endpoints[i] = u.String()
	}
	return encodeResult(Result{Data: endpoints})
}

// DiscoveryByHost returns the outcome narrowed to endpoints on ip, or null data
func DiscoveryByHost(ip string, duration int) string {
	d, err := discovererFor(duration)
	if err != nil {
		return encodeResult(Result{Error: err.Error()})
	}

	outcome, ok := d.DiscoverByHost(context.Background(), ip)
	if !ok {
		return encodeResult(Result{})
	}
	return encodeResult(Result{Data: outcome})
}

// DiscoveryOutcome returns the filtered outcome of the winning source, or null data
func DiscoveryOutcome(protocol, path string, duration int) string {
	d, err := discovererFor(duration)
	if err != nil {
		return encodeResult(Result{Error: err.Error()})
	}

	outcome, ok := d.DiscoverFilteredOutcome(context.Background(), protocol, path)
	if !ok {
		return encodeResult(Result{})
	}
	return encodeResult(Result{Data: outcome})
}
