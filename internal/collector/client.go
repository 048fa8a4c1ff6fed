package collector

import (
	"net/http"
	"time"
)

const (
	DefaultTokenURL  = "https://www.reddit.com/api/v1/access_token"
	DefaultAPIURL    = "https://oauth.reddit.com/"
	DefaultUserAgent = "reddit-collector/1.0"

	// Reddit allows 100 OAuth requests per minute; stay just under it.
	apiRequestInterval = 600 * time.Millisecond
	// Unauthenticated JSON is much stricter.
	publicRequestInterval = 2 * time.Second

	maxPageSize = 100

	httpTimeout = 10 * time.Second
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// userAgentTransport stamps every request with the configured User-Agent,
// which Reddit requires on both the token and the listing endpoints.
type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}

func withUserAgent(hc *http.Client, userAgent string) *http.Client {
	if hc == nil {
		hc = newHTTPClient()
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clone := *hc
	clone.Transport = &userAgentTransport{userAgent: userAgent, base: base}
	return &clone
}
