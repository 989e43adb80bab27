// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// verify.go defines the verifier plugin contract and its registry.

package davtest

// ResponseVerifier is the verifier plugin contract: judge one response
// and return pass/fail plus a diagnostic message. The message of a
// failing verifier is preserved verbatim for the report.
type ResponseVerifier interface {
	Verify(s *Session, uri string, resp *Response, body string, args Args) (bool, string)
}

// verifierRegistry maps plugin identifiers to factories. Unknown
// identifiers are a configuration error, never a silent skip.
var verifierRegistry = make(map[string]func() ResponseVerifier)

// RegisterVerifier registers a verifier factory under the given name.
// Registering a name twice panics.
func RegisterVerifier(name string, factory func() ResponseVerifier) {
	if _, ok := verifierRegistry[name]; ok {
		panic("davtest: verifier " + name + " already registered")
	}
	verifierRegistry[name] = factory
}

// Verify names a verifier plugin together with its arguments and its
// own feature gates.
type Verify struct {
	Callback string
	Args     Args

	RequireFeatures FeatureSet
	ExcludeFeatures FeatureSet
}

// MissingFeatures returns the required features the server lacks.
func (v *Verify) MissingFeatures(si *ServerInfo) FeatureSet {
	return v.RequireFeatures.Missing(si.Features)
}

// ExcludedFeatures returns the excluded features the server has.
func (v *Verify) ExcludedFeatures(si *ServerInfo) FeatureSet {
	return v.ExcludeFeatures.Intersect(si.Features)
}

// Run looks the plugin up and invokes it against the response. The
// stored arguments are re-resolved against extra substitutions when
// any captures exist, then deep-copied for the call. The error return
// is reserved for configuration problems.
func (v *Verify) Run(s *Session, uri string, resp *Response, body string) (bool, string, error) {
	if s.Info.Subs.HasExtras() {
		v.Args.resolveExtra(s.Info.Subs)
	}

	factory, ok := verifierRegistry[v.Callback]
	if !ok {
		return false, "", configErrorf("no such verifier %q", v.Callback)
	}
	ok2, msg := factory().Verify(s, uri, resp, body, v.Args.clone())
	return ok2, msg, nil
}
