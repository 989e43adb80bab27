// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davtest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

// The worked example of RFC 2617 section 3.5.
func TestCalcResponseRFC2617(t *testing.T) {
	ha1, err := calcHA1("md5", "Mufasa", "testrealm@host.com", "Circle Of Life", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if ha1 != "939e7578ed9e3c518a452acee763bce9" {
		t.Fatalf("HA1 = %s", ha1)
	}

	resp, err := calcResponse(ha1, "md5",
		"dcd98b7102dd2f0e8b11d0f600bfb0c093", "00000001", "0a4f113b",
		"auth", "GET", "/dir/index.html", "")
	if err != nil {
		t.Fatal(err)
	}
	if resp != "6629fae49393a05397450978507c4ef1" {
		t.Errorf("response = %s, want 6629fae49393a05397450978507c4ef1", resp)
	}
}

func TestCalcHA1Variants(t *testing.T) {
	plain, err := calcHA1("md5", "u", "r", "p", "n", "c")
	if err != nil {
		t.Fatal(err)
	}
	sess, err := calcHA1("md5-sess", "u", "r", "p", "n", "c")
	if err != nil {
		t.Fatal(err)
	}
	if plain == sess {
		t.Error("md5-sess did not fold nonce/cnonce into HA1")
	}
	sha, err := calcHA1("sha", "u", "r", "p", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(sha) != 40 {
		t.Errorf("sha HA1 length = %d, want 40", len(sha))
	}

	if _, err := calcHA1("md4", "u", "r", "p", "", ""); !IsConfigError(err) {
		t.Errorf("unknown algorithm: got %v, want config error", err)
	}
	if _, err := calcResponse("x", "md4", "n", "", "", "", "GET", "/", ""); !IsConfigError(err) {
		t.Errorf("unknown algorithm: got %v, want config error", err)
	}
}

func TestParseChallenge(t *testing.T) {
	params := parseChallenge(`realm="ex@mple", nonce="abc", qop=auth, algorithm=MD5-bogus`)
	want := map[string]string{
		"realm": "ex@mple", "nonce": "abc", "qop": "auth", "algorithm": "MD5-bogus",
	}
	for k, v := range want {
		if params[k] != v {
			t.Errorf("params[%q] = %q, want %q", k, params[k], v)
		}
	}
}

func TestNonceCount(t *testing.T) {
	c := NewDigestCache()
	if nc := c.nextNonceCount("n1"); nc != "00000001" {
		t.Errorf("first nc = %s", nc)
	}
	if nc := c.nextNonceCount("n1"); nc != "00000002" {
		t.Errorf("second nc = %s", nc)
	}
	// Counts are per nonce.
	if nc := c.nextNonceCount("n2"); nc != "00000001" {
		t.Errorf("other nonce nc = %s", nc)
	}
}

func TestChallengeExpiry(t *testing.T) {
	c := NewDigestCache()
	clock := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.put("alice", map[string]string{"nonce": "n"})
	if c.get("alice") == nil {
		t.Fatal("fresh challenge not returned")
	}

	clock = clock.Add(challengeTTL - time.Second)
	if c.get("alice") == nil {
		t.Error("challenge expired early")
	}

	clock = clock.Add(time.Second)
	if c.get("alice") != nil {
		t.Error("challenge still served at TTL boundary")
	}
	if c.get("bob") != nil {
		t.Error("challenge leaked across users")
	}
}

// newDigestTestSession wires a session against a httptest server.
func newDigestTestSession(t *testing.T, handler http.Handler) (*Session, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(u.Port())
	s := NewSession(&ServerInfo{
		Target:   Target{Host: u.Hostname(), Port: port},
		AuthType: "digest",
		User:     "alice",
		Pswd:     "wonder",
	})
	return s, srv.Close
}

func TestDigestAuthProbe(t *testing.T) {
	probes := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			probes++
			w.Header().Set("WWW-Authenticate",
				`Digest realm="test", nonce="abc123", qop="auth", algorithm=md5`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	s, done := newDigestTestSession(t, handler)
	defer done()

	value, err := s.digestAuth(s.Info.Target, "alice", "wonder", "PROPFIND", "/cal/")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`Digest username="alice"`,
		`realm="test"`,
		`nonce="abc123"`,
		`uri="/cal/"`,
		`qop=auth`,
		`nc=00000001`,
		`cnonce="` + defaultCNonce + `"`,
		`algorithm=md5`,
	} {
		if !strings.Contains(value, want) {
			t.Errorf("Authorization %q misses %q", value, want)
		}
	}

	// The cached challenge is reused, the nonce count moves on.
	value2, err := s.digestAuth(s.Info.Target, "alice", "wonder", "PROPFIND", "/cal/")
	if err != nil {
		t.Fatal(err)
	}
	if probes != 1 {
		t.Errorf("probes = %d, want 1", probes)
	}
	if !strings.Contains(value2, "nc=00000002") {
		t.Errorf("second Authorization %q misses nc=00000002", value2)
	}
}

func TestDigestAuthNoChallenge(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s, done := newDigestTestSession(t, handler)
	defer done()

	value, err := s.digestAuth(s.Info.Target, "alice", "wonder", "GET", "/")
	if err != nil {
		t.Fatal(err)
	}
	if value != "" {
		t.Errorf("got Authorization %q for a server without challenge", value)
	}
}
