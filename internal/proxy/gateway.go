// Package proxy implements the same-origin gateway that forwards model asset
// requests to the model-hosting providers and adds permissive CORS and
// long-lived caching to the response.
package proxy

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RoutePrefix is where the gateway is mounted.
const RoutePrefix = "/api/tfjs-proxy/"

// Header values attached to gateway responses.
const (
	AllowOrigin    = "*"
	AllowMethods   = "GET, OPTIONS"
	AllowHeaders   = "Content-Type"
	ImmutableCache = "public, max-age=31536000, immutable"

	defaultContentType = "application/octet-stream"
)

// BrowserUserAgent is sent upstream; some hosts reject obviously automated clients.
const BrowserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Config identifies the supported providers and the default model namespace.
type Config struct {
	ModelHubHost     string // e.g. tfhub.dev
	DatasetHubHost   string // e.g. www.kaggle.com
	DefaultHost      string // host used when the path names no provider
	DefaultNamespace string // path prefix under DefaultHost, e.g. tensorflow/tfjs-model
	UpstreamScheme   string
	Timeout          time.Duration
}

// DefaultConfig returns the public TF Hub / Kaggle layout.
func DefaultConfig() Config {
	return Config{
		ModelHubHost:     "tfhub.dev",
		DatasetHubHost:   "www.kaggle.com",
		DefaultHost:      "tfhub.dev",
		DefaultNamespace: "tensorflow/tfjs-model",
		UpstreamScheme:   "https",
		Timeout:          2 * time.Minute,
	}
}

// Gateway forwards GET requests to the providers. It keeps no state between
// requests.
type Gateway struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewGateway creates a gateway. A nil client gets a default one with cfg.Timeout.
func NewGateway(cfg Config, client *http.Client, logger *zap.Logger) *Gateway {
	defaults := DefaultConfig()
	if cfg.UpstreamScheme == "" {
		cfg.UpstreamScheme = defaults.UpstreamScheme
	}
	if cfg.DefaultHost == "" {
		cfg.DefaultHost = cfg.ModelHubHost
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{cfg: cfg, client: client, logger: logger}
}

// Config returns the gateway configuration.
func (g *Gateway) Config() Config {
	return g.cfg
}

// ServeHTTP answers GET by streaming the upstream asset and OPTIONS as a CORS preflight.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet:
	default:
		w.Header().Set("Allow", AllowMethods)
		plainText(w, http.StatusMethodNotAllowed, "Proxy error: Method Not Allowed")
		return
	}

	path := r.PathValue("path")
	if path == "" {
		path = strings.TrimPrefix(r.URL.Path, RoutePrefix)
	}
	upstream := g.ResolveUpstream(path, r.URL.RawQuery)

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, upstream, nil)
	if err != nil {
		g.logger.Warn("proxy request build failed", zap.String("upstream", upstream), zap.Error(err))
		plainText(w, http.StatusInternalServerError, "Proxy error")
		return
	}
	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("proxy upstream fetch failed", zap.String("upstream", upstream), zap.Error(err))
		plainText(w, http.StatusInternalServerError, "Proxy error")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Info("proxy upstream returned error",
			zap.String("upstream", upstream),
			zap.Int("status", resp.StatusCode))
		plainText(w, resp.StatusCode, "Proxy error: "+statusText(resp))
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", ImmutableCache)
	if length := resp.Header.Get("Content-Length"); length != "" {
		w.Header().Set("Content-Length", length)
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		// Headers are already sent; the client sees a truncated body.
		g.logger.Warn("proxy stream interrupted", zap.String("upstream", upstream), zap.Error(err))
	}
}

// ResolveUpstream rebuilds the provider URL from the gateway path. Paths whose
// first segment is a provider host (or a subdomain of one) are used verbatim;
// anything else lives under the default model namespace, so the gateway never
// reaches hosts outside the configured providers. The query string is
// forwarded unchanged.
func (g *Gateway) ResolveUpstream(path, rawQuery string) string {
	path = strings.TrimLeft(path, "/")
	for _, scheme := range []string{"https:/", "http:/"} {
		if strings.HasPrefix(path, scheme) {
			path = strings.TrimLeft(strings.TrimPrefix(path, scheme), "/")
			break
		}
	}

	var upstream string
	switch {
	case namesHost(path, g.cfg.ModelHubHost), namesHost(path, g.cfg.DatasetHubHost), namesHost(path, g.cfg.DefaultHost):
		upstream = g.cfg.UpstreamScheme + "://" + path
	default:
		prefix := strings.Trim(g.cfg.DefaultNamespace, "/")
		if prefix != "" {
			prefix += "/"
		}
		upstream = g.cfg.UpstreamScheme + "://" + g.cfg.DefaultHost + "/" + prefix + path
	}

	if rawQuery != "" {
		upstream += "?" + rawQuery
	}
	return upstream
}

// namesHost reports whether the first segment of path is host or one of its
// subdomains.
func namesHost(path, host string) bool {
	if host == "" {
		return false
	}
	segment, _, _ := strings.Cut(path, "/")
	segment = strings.ToLower(segment)
	host = strings.ToLower(host)
	return segment == host || strings.HasSuffix(segment, "."+host)
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", AllowOrigin)
	w.Header().Set("Access-Control-Allow-Methods", AllowMethods)
	w.Header().Set("Access-Control-Allow-Headers", AllowHeaders)
}

func plainText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// statusText extracts the reason phrase from the upstream status line.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
