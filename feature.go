// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// feature.go provides the capability sets used to gate requests,
// verifiers and whole suites on advertised server features.

package davtest

import (
	"sort"
	"strings"
)

// FeatureSet is a plain set of server capability names. There is no
// hierarchy or negation, only set difference and intersection.
type FeatureSet map[string]bool

// NewFeatureSet creates a set containing the given names.
func NewFeatureSet(names ...string) FeatureSet {
	fs := make(FeatureSet, len(names))
	for _, n := range names {
		fs[n] = true
	}
	return fs
}

// Add inserts name into fs.
func (fs FeatureSet) Add(name string) { fs[name] = true }

// Has reports whether name is in fs.
func (fs FeatureSet) Has(name string) bool { return fs[name] }

// Missing returns fs − have: the required features the server does not
// advertise. A non-empty result gates the guarded step out.
func (fs FeatureSet) Missing(have FeatureSet) FeatureSet {
	m := FeatureSet{}
	for n := range fs {
		if !have[n] {
			m[n] = true
		}
	}
	return m
}

// Intersect returns fs ∩ have: the excluded features the server does
// advertise. A non-empty result gates the guarded step out.
func (fs FeatureSet) Intersect(have FeatureSet) FeatureSet {
	m := FeatureSet{}
	for n := range fs {
		if have[n] {
			m[n] = true
		}
	}
	return m
}

// Names returns the sorted feature names, mainly for skip reasons.
func (fs FeatureSet) Names() []string {
	names := make([]string, 0, len(fs))
	for n := range fs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (fs FeatureSet) String() string {
	return strings.Join(fs.Names(), ", ")
}
