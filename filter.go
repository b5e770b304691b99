package wsdiscovery

import (
	"net/url"
	"regexp"

	"github.com/golang/glog"
)

// matcher is a compiled full-string pattern. An empty pattern matches any
// non-empty value; an invalid pattern matches nothing.
type matcher struct {
	re      *regexp.Regexp
	invalid bool
}

func newMatcher(pattern string) matcher {
	var m matcher
	if pattern == "" {
		return m
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		glog.Warningf("Invalid filter pattern %q: %v", pattern, err)
		m.invalid = true
		return m
	}
	m.re = re
	return m
}

func (m matcher) match(candidate string) bool {
	if candidate == "" || m.invalid {
		return false
	}
	if m.re == nil {
		return true
	}
	return m.re.MatchString(candidate)
}

// Match reports whether candidate fully matches pattern. An empty candidate
// never matches and an empty pattern matches everything else.
func Match(candidate, pattern string) bool {
	return newMatcher(pattern).match(candidate)
}

// SchemePathFilter keeps endpoints whose scheme and path both match
func SchemePathFilter(protocol, path string) func(*url.URL) bool {
	scheme := newMatcher(protocol)
	urlPath := newMatcher(path)
	return func(u *url.URL) bool {
		return scheme.match(u.Scheme) && urlPath.match(u.EscapedPath())
	}
}

// HostFilter keeps endpoints whose host is exactly ip
func HostFilter(ip string) func(*url.URL) bool {
	return func(u *url.URL) bool {
		return u.Hostname() == ip
	}
}
