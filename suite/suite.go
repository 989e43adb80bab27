// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package suite models test files and runs them sequentially against a
// server session.
//
// A test file contains suites, a suite contains tests and a test is a
// sequence of steps, each either a request or a pause. Steps of one
// test share the session's substitution store, so values captured by
// one request are visible to all later ones.
package suite

import (
	"time"

	"github.com/davtools/davtest"
)

// Step is one action of a test: exactly one of Request and Pause is
// set.
type Step struct {
	Request *davtest.Request
	Pause   time.Duration
}

// Test is a named sequence of steps. Execution stops at the first step
// that does not pass.
type Test struct {
	Name        string
	Description string

	// Ignore skips the test. Only restricts the run to marked tests
	// when at least one test of the suite carries it.
	Ignore bool
	Only   bool

	RequireFeatures davtest.FeatureSet
	ExcludeFeatures davtest.FeatureSet

	// Stats includes the test in the timing summary.
	Stats bool

	Steps []*Step

	// Filled by Run.
	Status   davtest.Status
	Reason   string
	Err      error
	Duration time.Duration
}

// Suite groups tests below a test file.
type Suite struct {
	Name string

	Ignore bool
	Only   bool

	RequireFeatures davtest.FeatureSet
	ExcludeFeatures davtest.FeatureSet

	Tests []*Test

	// Filled by Run.
	Status   davtest.Status
	Duration time.Duration
}

// TestFile is one parsed test definition file.
type TestFile struct {
	Name        string
	Description string

	Ignore bool
	Only   bool

	RequireFeatures davtest.FeatureSet
	ExcludeFeatures davtest.FeatureSet

	// StartRequests run before the first suite, EndRequests always run
	// after the last one, regardless of failures.
	StartRequests []*davtest.Request
	EndRequests   []*davtest.Request

	Suites []*Suite

	// Filled by Run.
	Status   davtest.Status
	Duration time.Duration
}

// gate reports whether a require/exclude pair allows execution and,
// when not, the reason.
func gate(si *davtest.ServerInfo, require, exclude davtest.FeatureSet) (bool, string) {
	if missing := require.Missing(si.Features); len(missing) > 0 {
		return false, "missing features: " + missing.String()
	}
	if excluded := exclude.Intersect(si.Features); len(excluded) > 0 {
		return false, "excluded features: " + excluded.String()
	}
	return true, ""
}

// onlySelected reports whether any test carries the Only marker.
func onlySelected(tests []*Test) bool {
	for _, t := range tests {
		if t.Only {
			return true
		}
	}
	return false
}

// Run executes the file: start requests, every suite in order, end
// requests. The file's status is the worst status of its suites; start
// request failures abort the suites but the end requests still run.
func (f *TestFile) Run(s *davtest.Session) {
	start := time.Now()
	defer func() { f.Duration = time.Since(start) }()
	f.Status = davtest.NotRun

	if f.Ignore {
		f.Status = davtest.Skipped
		markSkipped(f.Suites, "file ignored")
		return
	}
	if ok, reason := gate(s.Info, f.RequireFeatures, f.ExcludeFeatures); !ok {
		f.Status = davtest.Skipped
		markSkipped(f.Suites, reason)
		return
	}

	setupOK := true
	for _, r := range f.StartRequests {
		out := r.Execute(s)
		if out.Status > davtest.Pass {
			s.Log.Errorf("start request %s %v: %s", r.Method, r.RURIs, out.Reason)
			setupOK = false
			f.Status = davtest.Error
			break
		}
	}

	if setupOK {
		onlyMode := false
		for _, su := range f.Suites {
			if su.Only {
				onlyMode = true
			}
		}
		for _, su := range f.Suites {
			if onlyMode && !su.Only {
				su.Status = davtest.Skipped
				markTestsSkipped(su.Tests, "suite not selected")
				continue
			}
			su.Run(s)
			if su.Status > f.Status {
				f.Status = su.Status
			}
		}
	} else {
		markSkipped(f.Suites, "start requests failed")
	}

	for _, r := range f.EndRequests {
		out := r.Execute(s)
		if out.Status > davtest.Pass {
			s.Log.Errorf("end request %s %v: %s", r.Method, r.RURIs, out.Reason)
		}
	}

	if f.Status == davtest.NotRun {
		f.Status = davtest.Pass
	}
}

// Run executes the suite's tests in order. The suite's status is the
// worst status of its tests.
func (su *Suite) Run(s *davtest.Session) {
	start := time.Now()
	defer func() { su.Duration = time.Since(start) }()
	su.Status = davtest.NotRun

	if su.Ignore {
		su.Status = davtest.Skipped
		markTestsSkipped(su.Tests, "suite ignored")
		return
	}
	if ok, reason := gate(s.Info, su.RequireFeatures, su.ExcludeFeatures); !ok {
		su.Status = davtest.Skipped
		markTestsSkipped(su.Tests, reason)
		return
	}

	onlyMode := onlySelected(su.Tests)
	for _, t := range su.Tests {
		if onlyMode && !t.Only {
			t.Status = davtest.Skipped
			t.Reason = "test not selected"
			continue
		}
		t.Run(s)
		if t.Status > su.Status {
			su.Status = t.Status
		}
	}
	if su.Status == davtest.NotRun {
		su.Status = davtest.Pass
	}
}

// Run executes the test's steps in order, stopping at the first step
// that does not pass.
func (t *Test) Run(s *davtest.Session) {
	start := time.Now()
	defer func() { t.Duration = time.Since(start) }()
	t.Status = davtest.NotRun

	if t.Ignore {
		t.Status = davtest.Skipped
		t.Reason = "test ignored"
		return
	}
	if ok, reason := gate(s.Info, t.RequireFeatures, t.ExcludeFeatures); !ok {
		t.Status = davtest.Skipped
		t.Reason = reason
		return
	}

	s.Log.Infof("test %q", t.Name)
	for _, step := range t.Steps {
		if step.Pause > 0 {
			s.Log.Debugf("pausing %s", step.Pause)
			time.Sleep(step.Pause)
			continue
		}
		out := step.Request.Execute(s)
		if out.Status > t.Status {
			t.Status = out.Status
			t.Reason = out.Reason
			t.Err = out.Err
		}
		if out.Status > davtest.Pass {
			return
		}
	}
	if t.Status == davtest.NotRun {
		t.Status = davtest.Pass
	}
}

func markSkipped(suites []*Suite, reason string) {
	for _, su := range suites {
		su.Status = davtest.Skipped
		markTestsSkipped(su.Tests, reason)
	}
}

func markTestsSkipped(tests []*Test, reason string) {
	for _, t := range tests {
		t.Status = davtest.Skipped
		t.Reason = reason
	}
}
