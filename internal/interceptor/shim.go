// Package interceptor reroutes outbound requests for model-hosting providers
// through the asset proxy gateway for the duration of a model load.
package interceptor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/proxy"
)

// Shim is an http.RoundTripper that rewrites requests aimed at provider hosts
// into gateway requests and passes everything else to the wrapped transport.
// Once released it passes every request through untouched.
type Shim struct {
	gateway  *url.URL
	hosts    []string
	next     http.RoundTripper
	active   atomic.Bool
	rewrites atomic.Int64
}

// New creates an active shim. gatewayBase is the origin serving the gateway
// (e.g. http://127.0.0.1:8080); hosts are the provider hostnames to reroute.
// A nil next uses http.DefaultTransport.
func New(gatewayBase string, hosts []string, next http.RoundTripper) (*Shim, error) {
	base, err := url.Parse(strings.TrimRight(gatewayBase, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid gateway base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid gateway base URL %q: scheme and host are required", gatewayBase)
	}
	if next == nil {
		next = http.DefaultTransport
	}

	normalized := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			normalized = append(normalized, h)
		}
	}

	s := &Shim{gateway: base, hosts: normalized, next: next}
	s.active.Store(true)
	return s, nil
}

// RoundTrip implements http.RoundTripper.
func (s *Shim) RoundTrip(req *http.Request) (*http.Response, error) {
	if !s.active.Load() || !s.Matches(req.URL) {
		return s.next.RoundTrip(req)
	}

	rewritten := req.Clone(req.Context())
	rewritten.URL = s.Rewrite(req.URL)
	rewritten.Host = ""
	s.rewrites.Add(1)
	return s.next.RoundTrip(rewritten)
}

// Matches reports whether u targets one of the provider hosts or a subdomain of one.
func (s *Shim) Matches(u *url.URL) bool {
	if u == nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range s.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Rewrite maps a provider URL to its gateway form: the provider host and path
// become the gateway path parameter and the query string is kept.
func (s *Shim) Rewrite(u *url.URL) *url.URL {
	target := *s.gateway
	target.Path = strings.TrimRight(s.gateway.Path, "/") + proxy.RoutePrefix + u.Hostname() + u.EscapedPath()
	target.RawPath = ""
	target.RawQuery = u.RawQuery
	target.Fragment = ""
	return &target
}

// Client returns an http.Client that sends its requests through the shim.
func (s *Shim) Client() *http.Client {
	return &http.Client{Transport: s}
}

// Release stops rewriting. It is safe to call more than once.
func (s *Shim) Release() {
	s.active.Store(false)
}

// Active reports whether the shim still rewrites requests.
func (s *Shim) Active() bool {
	return s.active.Load()
}

// Rewrites returns how many requests were rerouted through the gateway.
func (s *Shim) Rewrites() int64 {
	return s.rewrites.Load()
}

// Scope installs a shim, runs fn with a client routed through it, and releases
// the shim on every exit path, including a panic inside fn.
func Scope(ctx context.Context, gatewayBase string, hosts []string, next http.RoundTripper, fn func(context.Context, *http.Client) error) error {
	shim, err := New(gatewayBase, hosts, next)
	if err != nil {
		return err
	}
	defer shim.Release()
	return fn(ctx, shim.Client())
}
