// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davtest

import (
	"strings"
	"testing"
)

var resolveTests = []struct {
	in   string
	want string
}{
	{"", ""},
	{"no tokens here", "no tokens here"},
	{"$host:", "cal.example.com"},
	{"http://$host:/principals/", "http://cal.example.com/principals/"},
	{"$host:$host:", "cal.example.comcal.example.com"},
	{"$unknown:", "$unknown:"},
	{"$host: and $unknown:", "cal.example.com and $unknown:"},
	// Malformed tokens stay untouched.
	{"$", "$"},
	{"$:", "$:"},
	{"$no colon", "$no colon"},
	{"cost: $12", "cost: $12"},
	{`"$quoted:"`, `"$quoted:"`},
	{"<$elem:>", "<$elem:>"},
	// A $ inside a candidate name restarts the scan.
	{"$a$host:", "$acal.example.com"},
}

func TestSubstitutionsResolve(t *testing.T) {
	subs := NewSubstitutions(map[string]string{"host": "cal.example.com"})
	for _, tc := range resolveTests {
		if got := subs.Resolve(tc.in); got != tc.want {
			t.Errorf("Resolve(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSubstitutionsTiers(t *testing.T) {
	subs := NewSubstitutions(map[string]string{"a": "static-a", "b": "static-b"})

	if subs.HasExtras() {
		t.Error("fresh store claims extras")
	}
	subs.Capture("a", "extra-a")
	subs.Capture("c", "extra-c")
	if !subs.HasExtras() {
		t.Error("store with captures claims no extras")
	}

	// The static tier never sees captures.
	if got := subs.Resolve("$a: $c:"); got != "static-a $c:" {
		t.Errorf("Resolve = %q", got)
	}
	// The extra tier wins, falling back to static.
	if got := subs.ResolveExtra("$a: $b: $c:"); got != "extra-a static-b extra-c" {
		t.Errorf("ResolveExtra = %q", got)
	}

	// Captures overwrite.
	subs.Capture("c", "extra-c2")
	if v, ok := subs.Extra("c"); !ok || v != "extra-c2" {
		t.Errorf("Extra(c) = %q, %t", v, ok)
	}
}

func TestResolveWith(t *testing.T) {
	got := ResolveWith("$x: $y:", map[string]string{"x": "1"})
	if got != "1 $y:" {
		t.Errorf("ResolveWith = %q", got)
	}
}

func TestExpandURIPlaceholders(t *testing.T) {
	subs := NewSubstitutions(map[string]string{"cal": "/calendars/user01"})
	subs.Capture("item", "7.ics")

	// ## becomes the repetition index.
	if got := ExpandURI(subs, "$cal:/##.ics", 3); got != "/calendars/user01/3.ics" {
		t.Errorf("## expansion = %q", got)
	}

	// ** becomes a unique value, different every time.
	a := ExpandURI(subs, "$cal:/**.ics", 1)
	b := ExpandURI(subs, "$cal:/**.ics", 1)
	if strings.Contains(a, "**") || strings.Contains(b, "**") {
		t.Fatalf("** not expanded: %q %q", a, b)
	}
	if a == b {
		t.Errorf("** expansion not unique: %q", a)
	}

	// ** wins over ## when both appear.
	c := ExpandURI(subs, "/c/**-##", 5)
	if strings.Contains(c, "**") {
		t.Errorf("** not expanded in %q", c)
	}
	if !strings.Contains(c, "##") {
		t.Errorf("## expanded although ** was present: %q", c)
	}

	// Placeholders after a ? are query string content and stay.
	if got := ExpandURI(subs, "/c/?q=**", 1); got != "/c/?q=**" {
		t.Errorf("query string mangled: %q", got)
	}
	if got := ExpandURI(subs, "/c/?q=##", 2); got != "/c/?q=##" {
		t.Errorf("query string mangled: %q", got)
	}
	// A ? after the placeholder does not protect it.
	if got := ExpandURI(subs, "/c/##?q=1", 2); got != "/c/2?q=1" {
		t.Errorf("## before ? = %q", got)
	}

	// Extra substitutions apply before placeholder handling.
	if got := ExpandURI(subs, "$cal:/$item:", 1); got != "/calendars/user01/7.ics" {
		t.Errorf("extra substitution = %q", got)
	}
}
