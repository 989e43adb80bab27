// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mock provides a scripted WebDAV-flavoured HTTP server for
// testing test definitions without a real calendar server.
//
// A mock server is a list of rules. Each incoming request is matched
// against the rules by method and path template and answered with the
// scripted response; every request is recorded so a test can assert
// what the harness actually sent.
package mock

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/davtools/davtest"
)

// ReceivedRequest records one request the server answered.
type ReceivedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   string

	// Vars are the path template variables of the matched rule.
	Vars map[string]string
}

// Rule scripts the response for one method and path template. The path
// may contain gorilla/mux style variables like /calendars/{user}/.
type Rule struct {
	Method string
	Path   string

	Status int
	Header http.Header
	Body   string

	// BodyFunc, if set, produces the body per request and wins over
	// Body.
	BodyFunc func(rr ReceivedRequest) string
}

// Server is a running scripted responder.
type Server struct {
	// User and Pswd, when both set, demand Basic authentication on
	// every request; anything else is answered 401 with a challenge.
	User string
	Pswd string

	srv *httptest.Server

	mu       sync.Mutex
	received []ReceivedRequest
}

// New starts a server answering according to rules. Unmatched requests
// get a 404 with a short diagnostic body. Callers must Close it.
func New(rules []Rule, user, pswd string) *Server {
	s := &Server{User: user, Pswd: pswd}

	router := mux.NewRouter()
	for _, rule := range rules {
		rule := rule
		router.HandleFunc(rule.Path, func(w http.ResponseWriter, r *http.Request) {
			s.answer(w, r, rule)
		}).Methods(rule.Method)
	}
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.record(r, nil)
		http.Error(w, fmt.Sprintf("mock: no rule for %s %s", r.Method, r.URL.Path), http.StatusNotFound)
	})

	s.srv = httptest.NewServer(router)
	return s
}

// answer records the request and writes the scripted response.
func (s *Server) answer(w http.ResponseWriter, r *http.Request, rule Rule) {
	rr := s.record(r, mux.Vars(r))

	if s.User != "" && s.Pswd != "" {
		user, pswd, ok := r.BasicAuth()
		if !ok || user != s.User || pswd != s.Pswd {
			w.Header().Set("WWW-Authenticate", `Basic realm="mock"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	for name, values := range rule.Header {
		w.Header()[name] = values
	}
	body := rule.Body
	if rule.BodyFunc != nil {
		body = rule.BodyFunc(rr)
	}
	status := rule.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	io.WriteString(w, body)
}

// record stores the incoming request for later inspection.
func (s *Server) record(r *http.Request, vars map[string]string) ReceivedRequest {
	body, _ := io.ReadAll(r.Body)
	rr := ReceivedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   string(body),
		Vars:   vars,
	}
	s.mu.Lock()
	s.received = append(s.received, rr)
	s.mu.Unlock()
	return rr
}

// URL returns the base URL of the running server.
func (s *Server) URL() string { return s.srv.URL }

// Target returns the server as an endpoint the harness can drive.
func (s *Server) Target() davtest.Target {
	u, err := url.Parse(s.srv.URL)
	if err != nil {
		panic("mock: bad httptest URL " + s.srv.URL)
	}
	port, _ := strconv.Atoi(u.Port())
	return davtest.Target{Host: u.Hostname(), Port: port, TLS: u.Scheme == "https"}
}

// Received returns a copy of all recorded requests.
func (s *Server) Received() []ReceivedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ReceivedRequest, len(s.received))
	copy(out, s.received)
	return out
}

// Reset drops all recorded requests.
func (s *Server) Reset() {
	s.mu.Lock()
	s.received = nil
	s.mu.Unlock()
}

// Close shuts the server down.
func (s *Server) Close() { s.srv.Close() }

// Multistatus builds a DAV multistatus body with one response element
// per href, handy for scripting PROPFIND and REPORT answers.
func Multistatus(hrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString(`<D:multistatus xmlns:D="DAV:">` + "\n")
	for _, href := range hrefs {
		b.WriteString("  <D:response>\n")
		b.WriteString("    <D:href>" + href + "</D:href>\n")
		b.WriteString("    <D:status>HTTP/1.1 200 OK</D:status>\n")
		b.WriteString("  </D:response>\n")
	}
	b.WriteString("</D:multistatus>\n")
	return b.String()
}
