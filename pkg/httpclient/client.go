// Package httpclient builds the HTTP clients used to talk to the collector.
package httpclient

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/agentops-ai/agentops-go/pkg/version"
)

// UserAgent identifies this SDK to the collector.
var UserAgent = fmt.Sprintf("agentops-go/%s (%s; %s)", version.Version, runtime.GOOS, runtime.GOARCH)

type headerTransport struct {
	headers http.Header
	rt      http.RoundTripper
}

func (h *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r2 := req.Clone(req.Context())
	for name, values := range h.headers {
		r2.Header[name] = values
	}
	return h.rt.RoundTrip(r2)
}

type options struct {
	timeout   time.Duration
	transport http.RoundTripper
	headers   http.Header
}

type Opt func(*options)

// WithTimeout sets a per-attempt timeout on the client.
func WithTimeout(d time.Duration) Opt {
	return func(o *options) {
		o.timeout = d
	}
}

// WithTransport replaces http.DefaultTransport as the underlying round tripper.
func WithTransport(rt http.RoundTripper) Opt {
	return func(o *options) {
		o.transport = rt
	}
}

// WithHeader adds a header to every request.
func WithHeader(name, value string) Opt {
	return func(o *options) {
		if value != "" {
			o.headers.Set(name, value)
		}
	}
}

// NewHTTPClient returns a client that stamps the SDK user agent, plus any
// extra headers, on every request.
func NewHTTPClient(opts ...Opt) *http.Client {
	o := options{
		transport: http.DefaultTransport,
		headers:   http.Header{},
	}
	o.headers.Set("User-Agent", UserAgent)
	for _, opt := range opts {
		opt(&o)
	}

	return &http.Client{
		Timeout: o.timeout,
		Transport: &headerTransport{
			headers: o.headers,
			rt:      o.transport,
		},
	}
}
