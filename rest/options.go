package rest

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client, useful for testing or
// custom transport configuration. It overrides WithInsecureTLS.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithInsecureTLS disables certificate verification. ctrlX devices ship
// with self-signed certificates out of the box, so this is commonly
// needed outside of production setups.
func WithInsecureTLS() Option {
	return func(c *Client) {
		if c.httpClient != nil {
			return
		}
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}
}

// WithDefaultTimeout sets the deadline applied when a caller requests
// the transport default. If not set, defaults to 30 seconds.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.defaultTimeout = d
	}
}

// WithLogger sets the logger used for request traces.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}
