// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// request.go is the request executor: it assembles one authenticated
// HTTP request from a declarative description, issues it, runs the
// capture stage and dispatches the verifiers.

package davtest

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"
)

// Response captures one received HTTP response.
type Response struct {
	// Response is the received response. Its body has been read and
	// closed already.
	Response *http.Response

	// Duration to receive the response and read the whole body.
	Duration time.Duration

	// The received body and the error got while reading it.
	BodyStr string
	BodyErr error
}

// Body returns a reader over the response body.
func (resp *Response) Body() io.Reader {
	return strings.NewReader(resp.BodyStr)
}

// Request is one authenticated HTTP call to make, together with its
// capture rules, verifiers and gating.
type Request struct {
	// Method is the HTTP method, e.g. "PROPFIND".
	Method string

	// RURIs are the target URI templates, executed sequentially. A
	// template may contain $name: tokens and one of the ** / ##
	// placeholders.
	RURIs []string

	// Headers maps header names to values; values may contain
	// substitution tokens.
	Headers map[string]string

	// Auth enables authentication with the session's auth type.
	// User, Pswd and Cert override the server-wide defaults when
	// non-empty.
	Auth bool
	User string
	Pswd string
	Cert string

	// UseHost2 targets the secondary endpoint.
	UseHost2 bool

	// Data is the body source, optional.
	Data *Body

	// IterateData repeats the request once per fixture file in the
	// Data directory until it is exhausted.
	IterateData bool

	// Count repeats the request; the repetition index is available
	// as $request_count: and via the ## placeholder.
	Count int

	// EndDelete issues a best-effort DELETE against the resolved URI
	// after a successful pass.
	EndDelete bool

	// WaitForSuccess polls the request until the verifiers pass or
	// the session's attempt ceiling is reached, for eventually
	// consistent server operations.
	WaitForSuccess bool

	// Verifiers judge the response, in declaration order.
	Verifiers []*Verify

	// Feature gating.
	RequireFeatures FeatureSet
	ExcludeFeatures FeatureSet

	// Capture rules.
	GrabURI      string // variable receiving the resolved request URI
	GrabCount    string // variable receiving the multistatus response count
	GrabHeader   []Grab
	GrabProperty []Grab
	GrabElement  []MultiGrab
	GrabJSON     []MultiGrab
	GrabCalProp  []Grab
	GrabCalParam []Grab
	GrabHTML     []HTMLGrab
}

// NewRequest returns a request with the defaults of the test
// definition format: authenticated, one repetition.
func NewRequest() *Request {
	return &Request{
		Auth:            true,
		Count:           1,
		Headers:         map[string]string{},
		RequireFeatures: FeatureSet{},
		ExcludeFeatures: FeatureSet{},
	}
}

// MissingFeatures returns the required features the server lacks.
func (r *Request) MissingFeatures(si *ServerInfo) FeatureSet {
	return r.RequireFeatures.Missing(si.Features)
}

// ExcludedFeatures returns the excluded features the server has.
func (r *Request) ExcludedFeatures(si *ServerInfo) FeatureSet {
	return r.ExcludeFeatures.Intersect(si.Features)
}

// Execute runs the request: feature gating, then for each repetition
// and each target URI the full resolve/issue/capture/verify pipeline.
// Execute never panics on server behavior; transport and configuration
// problems surface in the outcome's Err.
func (r *Request) Execute(s *Session) *Outcome {
	out := &Outcome{Status: NotRun}
	start := time.Now()
	defer func() { out.Duration = time.Since(start) }()

	if missing := r.MissingFeatures(s.Info); len(missing) > 0 {
		out.Status = Skipped
		out.Reason = "missing features: " + missing.String()
		s.Log.Infof("skipping %s %v: %s", r.Method, r.RURIs, out.Reason)
		return out
	}
	if excluded := r.ExcludedFeatures(s.Info); len(excluded) > 0 {
		out.Status = Skipped
		out.Reason = "excluded features: " + excluded.String()
		s.Log.Infof("skipping %s %v: %s", r.Method, r.RURIs, out.Reason)
		return out
	}

	count := r.Count
	if count < 1 {
		count = 1
	}
	uris := r.RURIs
	if len(uris) == 0 {
		out.Status = Error
		out.Err = configErrorf("request without target URI")
		out.Reason = out.Err.Error()
		return out
	}

	if r.IterateData && r.Data != nil {
		for i := 1; ; i++ {
			more, err := r.Data.Advance(s)
			if err != nil {
				out.update(Error, err.Error(), err)
				return out
			}
			if !more {
				break
			}
			for _, ruri := range uris {
				if err := r.executeOnce(s, out, i, ruri); err != nil {
					out.update(Error, err.Error(), err)
					return out
				}
			}
		}
	} else {
		for i := 1; i <= count; i++ {
			for _, ruri := range uris {
				if err := r.executeOnce(s, out, i, ruri); err != nil {
					out.update(Error, err.Error(), err)
					return out
				}
			}
		}
	}

	if out.Status == NotRun {
		out.Status = Pass
	}
	return out
}

// executeOnce performs one call against one resolved URI, including
// the wait-for-success poll. The error return is for transport and
// configuration failures only; verifier failures land in out.
func (r *Request) executeOnce(s *Session, out *Outcome, count int, ruri string) error {
	uri := ExpandURI(s.Info.Subs, ruri, count)

	attempts := 1
	if r.WaitForSuccess && s.WaitAttempts > 1 {
		attempts = s.WaitAttempts
	}

	var verdicts []Verdict
	var status Status
	var firstMsg string

	for try := 1; ; try++ {
		if try > 1 {
			s.Log.Debugf("wait-for-success attempt %d of %d", try, attempts)
			time.Sleep(s.WaitInterval)
		}
		resp, err := r.issue(s, uri, count)
		if err != nil {
			if try < attempts {
				continue
			}
			return err
		}

		r.captureResults(s, uri, resp, resp.BodyStr)

		var cfgErr error
		verdicts, status, firstMsg, cfgErr = r.runVerifiers(s, uri, resp)
		if cfgErr != nil {
			return cfgErr
		}
		if status != Fail || try >= attempts {
			break
		}
	}

	out.Verdicts = append(out.Verdicts, verdicts...)
	if status == Fail {
		out.update(Fail, firstMsg, nil)
		return nil
	}
	out.update(Pass, "", nil)

	if r.EndDelete {
		r.cleanupDelete(s, uri)
	}
	return nil
}

// runVerifiers invokes every verifier in declaration order. A failing
// verifier does not stop the rest from running; the request fails if
// any verifier fails and the first failing message is the one
// surfaced.
func (r *Request) runVerifiers(s *Session, uri string, resp *Response) ([]Verdict, Status, string, error) {
	status := Pass
	firstMsg := ""
	verdicts := make([]Verdict, 0, len(r.Verifiers))

	for _, v := range r.Verifiers {
		if missing := v.MissingFeatures(s.Info); len(missing) > 0 {
			verdicts = append(verdicts, Verdict{Callback: v.Callback, Status: Skipped,
				Message: "missing features: " + missing.String()})
			continue
		}
		if excluded := v.ExcludedFeatures(s.Info); len(excluded) > 0 {
			verdicts = append(verdicts, Verdict{Callback: v.Callback, Status: Skipped,
				Message: "excluded features: " + excluded.String()})
			continue
		}

		ok, msg, err := v.Run(s, uri, resp, resp.BodyStr)
		if err != nil {
			return verdicts, Error, "", err
		}
		if ok {
			verdicts = append(verdicts, Verdict{Callback: v.Callback, Status: Pass, Message: msg})
			s.Log.Debugf("verifier %s: pass", v.Callback)
		} else {
			verdicts = append(verdicts, Verdict{Callback: v.Callback, Status: Fail, Message: msg})
			s.Log.Debugf("verifier %s: fail: %s", v.Callback, msg)
			status = Fail
			if firstMsg == "" {
				firstMsg = msg
			}
		}
	}
	return verdicts, status, firstMsg, nil
}

// issue resolves body and headers and performs the HTTP call.
func (r *Request) issue(s *Session, uri string, count int) (*Response, error) {
	tg := s.target(r.UseHost2)
	if r.Cert != "" {
		tg.ClientCert = r.Cert
	}
	client, err := s.client(tg)
	if err != nil {
		return nil, err
	}

	var bodyStr string
	if r.Data != nil {
		bodyStr, err = r.Data.Resolve(s, count)
		if err != nil {
			return nil, err
		}
	}

	hdrs, err := r.headers(s, tg, r.Method, uri)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(r.Method, tg.BaseURL()+uri, strings.NewReader(bodyStr))
	if err != nil {
		return nil, err
	}
	for name, values := range hdrs {
		req.Header[name] = values
	}
	if len(bodyStr) > 0 {
		req.ContentLength = int64(len(bodyStr))
	}

	s.Log.Infof("%s %s", r.Method, uri)
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bb, be := io.ReadAll(resp.Body)
	result := &Response{
		Response: resp,
		Duration: time.Since(start),
		BodyStr:  string(bb),
		BodyErr:  be,
	}
	s.Log.Debugf("%d %s in %s", resp.StatusCode, http.StatusText(resp.StatusCode), result.Duration)
	return result, nil
}

// headers assembles the outgoing header map: declared headers with
// substitution applied, Content-Type from the body spec, and the
// Authorization header for the configured auth mode.
func (r *Request) headers(s *Session, tg Target, method, uri string) (http.Header, error) {
	h := make(http.Header)
	for name, value := range r.Headers {
		h.Set(name, s.Info.Subs.ResolveExtra(value))
	}

	if r.Data != nil && r.Data.ContentType != "" {
		h.Set("Content-Type", r.Data.ContentType)
	}

	if r.Auth {
		user := r.User
		if user == "" {
			user = s.Info.User
		}
		pswd := r.Pswd
		if pswd == "" {
			pswd = s.Info.Pswd
		}
		switch strings.ToLower(s.Info.AuthType) {
		case "basic":
			h.Set("Authorization", basicAuth(user, pswd))
		case "digest":
			value, err := s.digestAuth(tg, user, pswd, method, uri)
			if err != nil {
				return nil, err
			}
			if value != "" {
				h.Set("Authorization", value)
			}
		}
	}
	return h, nil
}

// basicAuth encodes a Basic Authorization header value.
func basicAuth(user, pswd string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pswd))
}

// cleanupDelete issues the end_delete cleanup call. Failures are
// logged, never promoted to a test failure.
func (r *Request) cleanupDelete(s *Session, uri string) {
	tg := s.target(r.UseHost2)
	client, err := s.client(tg)
	if err != nil {
		s.Log.Warnf("end_delete %s: %s", uri, err)
		return
	}
	req, err := http.NewRequest("DELETE", tg.BaseURL()+uri, nil)
	if err != nil {
		s.Log.Warnf("end_delete %s: %s", uri, err)
		return
	}
	hdrs, err := r.headers(s, tg, "DELETE", uri)
	if err == nil {
		if auth := hdrs.Get("Authorization"); auth != "" {
			req.Header.Set("Authorization", auth)
		}
	}
	resp, err := client.Do(req)
	if err != nil {
		s.Log.Warnf("end_delete %s: %s", uri, err)
		return
	}
	resp.Body.Close()
	s.Log.Debugf("end_delete %s: %d", uri, resp.StatusCode)
}
