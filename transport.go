// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// transport.go builds the per-target HTTP clients. Targets may be plain
// TCP, TLS with optional client certificate, or a unix domain socket.

package davtest

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"
)

// DefaultClientTimeout bounds a single request including reading the
// body. A hung call is reported as a transport error, not a
// verification failure.
var DefaultClientTimeout = 30 * time.Second

// Target describes one server endpoint to drive.
type Target struct {
	// Host and Port of the server.
	Host string
	Port int

	// TLS selects https. Certificate verification is disabled: the
	// harness routinely drives servers with self-signed certificates.
	TLS bool

	// UnixSocket, if set, dials the given unix domain socket path
	// instead of Host:Port. Host:Port still appear in the URL and the
	// Host header.
	UnixSocket string

	// ClientCert is the path of a PEM file holding a client
	// certificate and key to present during the TLS handshake.
	ClientCert string
}

// BaseURL returns the scheme://host:port prefix for request URIs.
func (tg Target) BaseURL() string {
	scheme := "http"
	if tg.TLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, tg.Host, tg.Port)
}

// empty reports whether tg was never configured.
func (tg Target) empty() bool {
	return tg.Host == "" && tg.UnixSocket == ""
}

func dontFollowRedirects(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

// newHTTPClient builds the client for one target. Redirects are never
// followed automatically: the harness must see 3xx responses verbatim.
func newHTTPClient(tg Target, timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if tg.UnixSocket != "" {
		socket := tg.UnixSocket
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", socket)
		}
	}

	if tg.TLS {
		cfg := &tls.Config{InsecureSkipVerify: true}
		if tg.ClientCert != "" {
			cert, err := tls.LoadX509KeyPair(tg.ClientCert, tg.ClientCert)
			if err != nil {
				return nil, fmt.Errorf("loading client certificate %s: %s", tg.ClientCert, err)
			}
			cfg.Certificates = []tls.Certificate{cert}
		}
		transport.TLSClientConfig = cfg
	}

	return &http.Client{
		Transport:     transport,
		CheckRedirect: dontFollowRedirects,
		Timeout:       timeout,
	}, nil
}
