// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// generate.go defines the body generator plugin contract and its
// registry.

package davtest

// Args is the argument mapping handed to verifier and generator
// plugins: name → ordered list of string values.
type Args map[string][]string

// clone deep-copies a so a plugin invocation cannot mutate the stored
// arguments of its spec; a single spec may be invoked once per
// repetition.
func (a Args) clone() Args {
	c := make(Args, len(a))
	for k, v := range a {
		vv := make([]string, len(v))
		copy(vv, v)
		c[k] = vv
	}
	return c
}

// resolveExtra re-resolves every argument value in place against the
// extra substitutions. Argument lists are resolved once at parse time
// against the static tier only, so captures made during the run must
// be applied immediately before each invocation.
func (a Args) resolveExtra(subs *Substitutions) {
	for name, values := range a {
		resolved := make([]string, len(values))
		for i, v := range values {
			resolved[i] = subs.ResolveExtra(v)
		}
		a[name] = resolved
	}
}

// First returns the first value of the named argument or def.
func (a Args) First(name, def string) string {
	if v := a[name]; len(v) > 0 {
		return v[0]
	}
	return def
}

// BodyGenerator is the generator plugin contract: produce request body
// content from the session and the argument mapping.
type BodyGenerator interface {
	Generate(s *Session, args Args) (string, error)
}

// ----------------------------------------------------------------------------
// Generator registry

// generatorRegistry maps plugin identifiers to factories. Resolution
// happens late, by name at call time, so registration order does not
// matter as long as it precedes execution.
var generatorRegistry = make(map[string]func() BodyGenerator)

// RegisterGenerator registers a generator factory under the given
// name. Registering a name twice panics, like a duplicate flag.
func RegisterGenerator(name string, factory func() BodyGenerator) {
	if _, ok := generatorRegistry[name]; ok {
		panic("davtest: generator " + name + " already registered")
	}
	generatorRegistry[name] = factory
}

// GeneratorCall names a generator plugin together with its arguments.
type GeneratorCall struct {
	Callback string
	Args     Args
}

// Generate looks the plugin up and invokes it. The stored arguments
// are re-resolved against extra substitutions when any captures exist,
// then deep-copied for the call.
func (g *GeneratorCall) Generate(s *Session) (string, error) {
	if s.Info.Subs.HasExtras() {
		g.Args.resolveExtra(s.Info.Subs)
	}

	factory, ok := generatorRegistry[g.Callback]
	if !ok {
		return "", configErrorf("no such generator %q", g.Callback)
	}
	return factory().Generate(s, g.Args.clone())
}
