// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davtest

import "testing"

func TestFeatureSetMissing(t *testing.T) {
	have := NewFeatureSet("caldav", "sync-report")

	missing := NewFeatureSet("caldav", "carddav", "ctag").Missing(have)
	if len(missing) != 2 || !missing.Has("carddav") || !missing.Has("ctag") {
		t.Errorf("Missing = %s", missing)
	}
	if m := NewFeatureSet("caldav").Missing(have); len(m) != 0 {
		t.Errorf("Missing = %s, want empty", m)
	}
	if m := NewFeatureSet().Missing(have); len(m) != 0 {
		t.Errorf("empty requirement Missing = %s", m)
	}
}

func TestFeatureSetIntersect(t *testing.T) {
	have := NewFeatureSet("caldav", "sync-report")

	got := NewFeatureSet("sync-report", "ctag").Intersect(have)
	if len(got) != 1 || !got.Has("sync-report") {
		t.Errorf("Intersect = %s", got)
	}
	if got := NewFeatureSet("ctag").Intersect(have); len(got) != 0 {
		t.Errorf("Intersect = %s, want empty", got)
	}
}

func TestFeatureSetString(t *testing.T) {
	fs := NewFeatureSet("b", "a", "c")
	if got := fs.String(); got != "a, b, c" {
		t.Errorf("String = %q", got)
	}
}
