// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// digest.go implements the HTTP Digest authentication sub-protocol of
// RFC 2617: challenge harvesting via an OPTIONS probe, challenge
// caching per user, and the HA1/HA2/response computation.

package davtest

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"net/http"
	"strings"
	"sync"
	"time"
)

// digestAlgorithms maps the algorithm names of RFC 2617 to their hash
// constructors. Selecting anything else fails fast.
var digestAlgorithms = map[string]func() hash.Hash{
	"md5":      md5.New,
	"md5-sess": md5.New,
	"sha":      sha1.New,
}

// defaultCNonce is used when the server challenge carried no cnonce.
// A fixed value keeps digest exchanges reproducible.
const defaultCNonce = "D4AAE4FF-ADA1-4149-BFE2-B506F9264318"

// challengeTTL is how long a harvested challenge stays reusable before
// the server is probed again.
const challengeTTL = 600 * time.Second

// calcHA1 computes the HA1 hex digest: hash(user:realm:password), with
// the session variant folding nonce and cnonce in on top.
func calcHA1(alg, user, realm, pswd, nonce, cnonce string) (string, error) {
	newHash, ok := digestAlgorithms[alg]
	if !ok {
		return "", configErrorf("unrecognized digest algorithm %q", alg)
	}

	h := newHash()
	fmt.Fprintf(h, "%s:%s:%s", user, realm, pswd)
	ha1 := h.Sum(nil)

	if alg == "md5-sess" {
		h = newHash()
		h.Write(ha1)
		fmt.Fprintf(h, ":%s:%s", nonce, cnonce)
		ha1 = h.Sum(nil)
	}

	return hex.EncodeToString(ha1), nil
}

// calcResponse computes the response hex digest from a HA1 hex digest.
// With qop="auth-int" an entity hash would be folded into HA2; the
// harness always passes no entity body there, so auth-int requests are
// effectively unauthenticated for body content.
func calcResponse(ha1, alg, nonce, nc, cnonce, qop, method, digestURI, hEntity string) (string, error) {
	newHash, ok := digestAlgorithms[alg]
	if !ok {
		return "", configErrorf("unrecognized digest algorithm %q", alg)
	}

	h := newHash()
	fmt.Fprintf(h, "%s:%s", method, digestURI)
	if qop == "auth-int" {
		fmt.Fprintf(h, ":%s", hEntity)
	}
	ha2 := hex.EncodeToString(h.Sum(nil))

	h = newHash()
	fmt.Fprintf(h, "%s:%s:", ha1, nonce)
	if nc != "" && cnonce != "" && qop != "" {
		fmt.Fprintf(h, "%s:%s:%s:", nc, cnonce, qop)
	}
	fmt.Fprintf(h, "%s", ha2)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// challenge is one cached WWW-Authenticate: Digest challenge.
type challenge struct {
	params  map[string]string
	expires time.Time
}

// DigestCache keeps the most recent challenge per user plus the
// nonce-count table. The nonce-count is keyed by nonce value and
// incremented on every reuse regardless of which user or request
// triggered it, matching how one client session legitimately counts
// under RFC 2617.
type DigestCache struct {
	mu         sync.Mutex
	byUser     map[string]*challenge
	nonceCount map[string]int

	now func() time.Time
}

// NewDigestCache creates an empty cache.
func NewDigestCache() *DigestCache {
	return &DigestCache{
		byUser:     make(map[string]*challenge),
		nonceCount: make(map[string]int),
		now:        time.Now,
	}
}

// get returns the unexpired challenge for user, if any.
func (c *DigestCache) get(user string) *challenge {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := c.byUser[user]
	if ch == nil || !c.now().Before(ch.expires) {
		return nil
	}
	return ch
}

// put stores a freshly harvested challenge for user.
func (c *DigestCache) put(user string, params map[string]string) *challenge {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := &challenge{params: params, expires: c.now().Add(challengeTTL)}
	c.byUser[user] = ch
	return ch
}

// nextNonceCount increments and returns the count for nonce, starting
// at 1, formatted as the 8 digit hex string the wire format wants.
func (c *DigestCache) nextNonceCount(nonce string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonceCount[nonce]++
	return fmt.Sprintf("%08x", c.nonceCount[nonce])
}

// parseChallenge parses the parameter list of a WWW-Authenticate:
// Digest header: comma separated key=value or key="value" pairs.
func parseChallenge(value string) map[string]string {
	unq := func(s string) string {
		if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
			return s[1 : len(s)-1]
		}
		return s
	}
	params := make(map[string]string)
	for _, part := range strings.Split(value, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		params[strings.TrimSpace(kv[0])] = unq(strings.TrimSpace(kv[1]))
	}
	return params
}

// digestAuth produces the Authorization header value for one request.
// An unexpired cached challenge is reused; otherwise the target is
// probed with a credential-free OPTIONS request to harvest a new one.
// If the server offers no digest challenge the returned value is empty
// and authentication is skipped for this request.
func (s *Session) digestAuth(tg Target, user, pswd, method, uri string) (string, error) {
	details := s.Digest.get(user)
	if details == nil {
		params, err := s.probeChallenge(tg, uri)
		if err != nil {
			return "", err
		}
		if params == nil {
			return "", nil
		}
		details = s.Digest.put(user, params)
	}

	p := details.params
	alg := p["algorithm"]
	if alg == "" {
		alg = "md5"
	}

	var nc string
	if p["qop"] != "" {
		nc = s.Digest.nextNonceCount(p["nonce"])
		if p["cnonce"] == "" {
			p["cnonce"] = defaultCNonce
		}
	}

	ha1, err := calcHA1(alg, user, p["realm"], pswd, p["nonce"], p["cnonce"])
	if err != nil {
		return "", err
	}
	digest, err := calcResponse(ha1, alg, p["nonce"], nc, p["cnonce"], p["qop"], method, uri, "")
	if err != nil {
		return "", err
	}

	if p["qop"] != "" {
		return fmt.Sprintf(
			`Digest username="%s", realm="%s", nonce="%s", uri="%s", `+
				`response=%s, algorithm=%s, cnonce="%s", qop=%s, nc=%s`,
			user, p["realm"], p["nonce"], uri, digest, alg, p["cnonce"], p["qop"], nc), nil
	}
	return fmt.Sprintf(
		`Digest username="%s", realm="%s", nonce="%s", uri="%s", `+
			`response=%s, algorithm=%s`,
		user, p["realm"], p["nonce"], uri, digest, alg), nil
}

// probeChallenge issues the credential-free OPTIONS probe and parses
// the first Digest challenge out of the response. It returns nil
// parameters when the server presented no digest challenge. Transport
// failures are surfaced to the caller and abort the enclosing request
// attempt; the probe is never retried internally.
func (s *Session) probeChallenge(tg Target, uri string) (map[string]string, error) {
	client, err := s.client(tg)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest("OPTIONS", tg.BaseURL()+uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		return nil, nil
	}
	for _, item := range resp.Header.Values("Www-Authenticate") {
		if len(item) < 7 || !strings.EqualFold(item[:7], "digest ") {
			continue
		}
		return parseChallenge(item[7:]), nil
	}
	return nil, nil
}
