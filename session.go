// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davtest

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ServerInfo holds the server-wide configuration of one run: the
// endpoints, default credentials, the advertised feature set and the
// static substitutions.
type ServerInfo struct {
	// Target is the primary endpoint, Target2 the optional secondary
	// one selected by requests with UseHost2.
	Target  Target
	Target2 Target

	// AuthType selects how requests authenticate: "basic", "digest"
	// or "" for none.
	AuthType string

	// User and Pswd are the default credentials. Requests may
	// override them per call.
	User string
	Pswd string

	// Features are the capabilities the server under test advertises.
	// Requests, verifiers and suites are gated against this set.
	Features FeatureSet

	// Subs is the run scoped substitution store.
	Subs *Substitutions

	// DataDir is prepended to relative body file paths.
	DataDir string
}

// Session owns the mutable state of one run: the digest challenge
// cache, the per-target HTTP clients and the logger. A Session serves
// a single sequential control flow; the digest cache itself is lock
// protected so independent sessions could share one if ever needed.
type Session struct {
	Info   *ServerInfo
	Digest *DigestCache
	Log    *logrus.Logger

	// Timeout bounds every request of this session. Zero means
	// DefaultClientTimeout.
	Timeout time.Duration

	// WaitAttempts and WaitInterval bound the wait-for-success poll
	// of eventually consistent server operations.
	WaitAttempts int
	WaitInterval time.Duration

	mu      sync.Mutex
	clients map[Target]*http.Client
}

// NewSession creates a session for the given server. The logger
// discards everything until replaced; callers wanting output set
// their own.
func NewSession(info *ServerInfo) *Session {
	if info.Subs == nil {
		info.Subs = NewSubstitutions(nil)
	}
	if info.Features == nil {
		info.Features = FeatureSet{}
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Session{
		Info:         info,
		Digest:       NewDigestCache(),
		Log:          log,
		WaitAttempts: 30,
		WaitInterval: 1 * time.Second,
		clients:      make(map[Target]*http.Client),
	}
}

// client returns the cached HTTP client for tg, building it on first
// use.
func (s *Session) client(tg Target) (*http.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[tg]; ok {
		return c, nil
	}
	c, err := newHTTPClient(tg, s.Timeout)
	if err != nil {
		return nil, err
	}
	s.clients[tg] = c
	return c, nil
}

// target returns the endpoint a request addresses.
func (s *Session) target(useHost2 bool) Target {
	if useHost2 && !s.Info.Target2.empty() {
		return s.Info.Target2
	}
	return s.Info.Target
}
