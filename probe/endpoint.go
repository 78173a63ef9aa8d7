package probe

import (
	"net/url"
	"strings"
	"time"

	"github.com/kbukum/gatewayprobe/errors"
	"github.com/kbukum/gatewayprobe/httpclient"
	"github.com/kbukum/gatewayprobe/llm"
	"github.com/kbukum/gatewayprobe/version"
)

// Endpoint is the gateway under test.
type Endpoint struct {
	// BaseURL is the absolute http(s) URL of the gateway.
	BaseURL string
	// Token is the bearer credential. It never leaves the process except in
	// the Authorization header.
	Token string
}

// NewEndpoint validates and returns an Endpoint. Placeholder tokens such as
// "sk-local" are accepted.
func NewEndpoint(baseURL, token string) (Endpoint, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return Endpoint{}, errors.Configuration("gateway endpoint is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Endpoint{}, errors.Configurationf("gateway endpoint %q must be an absolute http(s) URL", baseURL)
	}
	if strings.TrimSpace(token) == "" {
		return Endpoint{}, errors.Configuration("gateway token is required")
	}
	return Endpoint{BaseURL: baseURL, Token: token}, nil
}

// String returns the URL only.
func (e Endpoint) String() string { return e.BaseURL }

// GoString keeps the token out of %#v output.
func (e Endpoint) GoString() string {
	return `probe.Endpoint{BaseURL: "` + e.BaseURL + `", Token: "***"}`
}

// TransportConfig returns the httpclient configuration for the endpoint:
// bearer auth, the per-call timeout and a pool sized for poolSize
// concurrent probes.
func (e Endpoint) TransportConfig(timeout time.Duration, poolSize int) httpclient.Config {
	return httpclient.Config{
		Name:                "gateway",
		BaseURL:             e.BaseURL,
		Timeout:             timeout,
		Auth:                httpclient.BearerAuth(e.Token),
		Headers:             map[string]string{"User-Agent": version.UserAgent()},
		MaxIdleConnsPerHost: poolSize,
	}
}

// LookupDialect returns the registered dialect called name. An unknown name
// is a configuration error listing the dialects on offer.
func LookupDialect(name string) (llm.Dialect, error) {
	d, err := llm.GetDialect(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return nil, errors.Configurationf("unknown gateway dialect %q (available: %s)",
			name, strings.Join(llm.Dialects(), ", "))
	}
	return d, nil
}
