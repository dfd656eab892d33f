package rubix

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

const (
	defaultDialTimeout     = 10 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
	defaultMaxIdlePerHost  = 16
	http2ReadIdleTimeout   = 30 * time.Second
	http2PingTimeout       = 15 * time.Second
)

// newTransport builds the connection pool shared by every call of a client.
// A secure transport negotiates HTTP/2 through ALPN and health-checks idle
// connections with pings; verify toggles certificate verification.
func newTransport(secure, verify bool) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout:   defaultDialTimeout,
		KeepAlive: defaultKeepAlive,
	}
	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   defaultMaxIdlePerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if !secure {
		return t, nil
	}

	t.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !verify, //nolint:gosec // opt-in through WithVerifyCertificate(false)
	}
	h2, err := http2.ConfigureTransports(t)
	if err != nil {
		return nil, configurationError("failed to enable HTTP/2", err)
	}
	h2.ReadIdleTimeout = http2ReadIdleTimeout
	h2.PingTimeout = http2PingTimeout
	return t, nil
}
