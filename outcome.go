package wsdiscovery

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"github.com/golang/glog"
)

// Outcome is everything discovered from one source address. Endpoints are
// unique by value. An Outcome is never modified after construction.
type Outcome struct {
	sourceIP  string
	endpoints []*url.URL
}

// NewOutcome builds an outcome, dropping duplicate endpoints
func NewOutcome(sourceIP string, endpoints []*url.URL) *Outcome {
	seen := make(map[string]bool, len(endpoints))
	unique := make([]*url.URL, 0, len(endpoints))
	for _, u := range endpoints {
		if u == nil || seen[u.String()] {
			continue
		}
		seen[u.String()] = true
		unique = append(unique, u)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].String() < unique[j].String() })

	return &Outcome{sourceIP: sourceIP, endpoints: unique}
}

// SourceIP is the local address the probe was sent from
func (o *Outcome) SourceIP() string {
	return o.sourceIP
}

// Endpoints returns a copy of the discovered endpoints sorted by value
func (o *Outcome) Endpoints() []*url.URL {
	result := make([]*url.URL, len(o.endpoints))
	for i, u := range o.endpoints {
		clone := *u
		result[i] = &clone
	}
	return result
}

// Strings returns the endpoints in string form
func (o *Outcome) Strings() []string {
	result := make([]string, len(o.endpoints))
	for i, u := range o.endpoints {
		result[i] = u.String()
	}
	return result
}

func (o *Outcome) Len() int {
	return len(o.endpoints)
}

// Narrow returns a new outcome with the same source holding only the
// endpoints keep accepts.
func (o *Outcome) Narrow(keep func(*url.URL) bool) *Outcome {
	var kept []*url.URL
	for _, u := range o.endpoints {
		if keep(u) {
			kept = append(kept, u)
		}
	}
	return &Outcome{sourceIP: o.sourceIP, endpoints: kept}
}

func (o *Outcome) String() string {
	return fmt.Sprintf("%s: %v", o.sourceIP, o.Strings())
}

func (o *Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SourceIP  string   `json:"source_ip"`
		Endpoints []string `json:"endpoints"`
	}{o.sourceIP, o.Strings()})
}

// parseEndpoint turns one XAddrs entry into a URL. Entries without a scheme
// are rejected.
func parseEndpoint(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidEndpoint, raw, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w %q: no scheme", ErrInvalidEndpoint, raw)
	}
	return u, nil
}

// parseEndpoints converts raw entries to URLs. In strict mode the first bad
// entry fails the whole set, otherwise bad entries are skipped.
func parseEndpoints(raw []string, strict bool) ([]*url.URL, error) {
	urls := make([]*url.URL, 0, len(raw))
	for _, entry := range raw {
		u, err := parseEndpoint(entry)
		if err != nil {
			if strict {
				return nil, err
			}
			glog.Warningf("Skip endpoint: %v", err)
			continue
		}
		urls = append(urls, u)
	}
	return urls, nil
}
