// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// substitute.go provides the two tier variable store and the $name:
// token scanner used throughout the harness.

package davtest

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Substitutions is the run scoped variable store. Static entries are
// seeded once from the server configuration and never change. Extra
// entries are captured while the run progresses, e.g. by grabs, and are
// never cleared between requests: a value captured by request N stays
// visible to every later request.
//
// Lookups during extra resolution fall back from the extra tier to the
// static tier.
type Substitutions struct {
	static map[string]string
	extra  map[string]string
}

// NewSubstitutions creates a store seeded with the given static entries.
// Keys are bare variable names without the $ and : decoration.
func NewSubstitutions(static map[string]string) *Substitutions {
	s := &Substitutions{
		static: make(map[string]string, len(static)),
		extra:  make(map[string]string),
	}
	for k, v := range static {
		s.static[k] = v
	}
	return s
}

// Resolve replaces every recognized $name: token with its static value.
// Unrecognized tokens are left untouched.
func (s *Substitutions) Resolve(text string) string {
	return replaceTokens(text, func(name string) (string, bool) {
		v, ok := s.static[name]
		return v, ok
	})
}

// ResolveExtra replaces every recognized $name: token with its extra
// value, falling back to the static tier. Unrecognized tokens are left
// untouched.
func (s *Substitutions) ResolveExtra(text string) string {
	return replaceTokens(text, func(name string) (string, bool) {
		if v, ok := s.extra[name]; ok {
			return v, true
		}
		v, ok := s.static[name]
		return v, ok
	})
}

// ResolveWith resolves text against the given private table only. The
// table values themselves are expected to be resolved already.
func ResolveWith(text string, table map[string]string) string {
	return replaceTokens(text, func(name string) (string, bool) {
		v, ok := table[name]
		return v, ok
	})
}

// Capture inserts or overwrites an extra entry. Extra entries are
// append/overwrite only, there is no deletion.
func (s *Substitutions) Capture(name, value string) {
	s.extra[name] = value
}

// HasExtras reports whether any capture has occurred during this run.
// Callers use it to decide whether verifier and generator argument
// lists, resolved once at parse time against the static tier only, need
// re-resolution before each invocation.
func (s *Substitutions) HasExtras() bool {
	return len(s.extra) > 0
}

// Extra returns the current value of an extra entry.
func (s *Substitutions) Extra(name string) (string, bool) {
	v, ok := s.extra[name]
	return v, ok
}

// replaceTokens is a single pass scanner over the closed token grammar
// $name: where name consists of anything but '$', ':' and whitespace.
// Tokens without a value in the lookup are emitted unchanged.
func replaceTokens(text string, lookup func(string) (string, bool)) string {
	dollar := strings.IndexByte(text, '$')
	if dollar < 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for {
		b.WriteString(text[:dollar])
		text = text[dollar:]
		name, rest, ok := scanToken(text)
		if ok {
			if v, found := lookup(name); found {
				b.WriteString(v)
			} else {
				b.WriteString(text[:len(text)-len(rest)])
			}
			text = rest
		} else {
			b.WriteByte('$')
			text = text[1:]
		}
		dollar = strings.IndexByte(text, '$')
		if dollar < 0 {
			b.WriteString(text)
			return b.String()
		}
	}
}

// scanToken scans a $name: token at the start of text. It returns the
// bare name and the remainder after the closing colon.
func scanToken(text string) (name, rest string, ok bool) {
	// text[0] == '$'
	for i := 1; i < len(text); i++ {
		c := text[i]
		switch {
		case c == ':':
			if i == 1 {
				return "", "", false
			}
			return text[1:i], text[i+1:], true
		case c == '$' || c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '"' || c == '<' || c == '>':
			return "", "", false
		}
	}
	return "", "", false
}

// ExpandURI resolves a request URI template for one repetition: extra
// substitutions first, then exactly one of the two placeholder kinds.
// A ** placeholder becomes a freshly generated unique identifier, a ##
// placeholder becomes the 1-based repetition index. Neither placeholder
// is touched when a literal ? appears before it; query strings are
// never mangled.
func ExpandURI(s *Substitutions, uri string, count int) string {
	uri = s.ResolveExtra(uri)
	if i := strings.Index(uri, "**"); i >= 0 {
		if q := strings.IndexByte(uri, '?'); q < 0 || q > i {
			uri = strings.Replace(uri, "**", uuid.New().String(), -1)
		}
	} else if i := strings.Index(uri, "##"); i >= 0 {
		if q := strings.IndexByte(uri, '?'); q < 0 || q > i {
			uri = strings.Replace(uri, "##", strconv.Itoa(count), -1)
		}
	}
	return uri
}
