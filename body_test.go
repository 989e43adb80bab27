// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davtest

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func newBodyTestSession(dataDir string) *Session {
	return NewSession(&ServerInfo{
		Subs:    NewSubstitutions(map[string]string{"org": "example.com"}),
		DataDir: dataDir,
	})
}

func TestBodyResolveValue(t *testing.T) {
	s := newBodyTestSession("")
	s.Info.Subs.Capture("uid", "abc-123")

	b := &Body{
		ContentType: "text/xml",
		Value:       "<x org='$org:' uid='$uid:' n='$request_count:' p='$private:'/>",
		Substitutions: map[string]string{
			"private": "42",
		},
	}
	got, err := b.Resolve(s, 7)
	if err != nil {
		t.Fatal(err)
	}
	want := "<x org='example.com' uid='abc-123' n='7' p='42'/>"
	if got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}

	// The repetition count was captured as an extra entry.
	if v, ok := s.Info.Subs.Extra("request_count"); !ok || v != "7" {
		t.Errorf("request_count = %q, %t", v, ok)
	}
}

func TestBodyResolveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "req.xml")
	if err := os.WriteFile(path, []byte("<propfind host='$org:'/>"), 0644); err != nil {
		t.Fatal(err)
	}

	s := newBodyTestSession(dir)
	b := &Body{FilePath: "req.xml"}
	got, err := b.Resolve(s, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != "<propfind host='example.com'/>" {
		t.Errorf("Resolve = %q", got)
	}
}

func TestBodyDirectoryIteration(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2.ics", "1.ics", ".hidden", "3.ics"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}

	s := newBodyTestSession("")
	b := &Body{FilePath: dir}

	if more, err := b.HasMore(s); err != nil || !more {
		t.Fatalf("HasMore before start = %t, %v", more, err)
	}

	var seen []string
	for {
		more, err := b.Advance(s)
		if err != nil {
			t.Fatal(err)
		}
		if !more {
			break
		}
		data, err := b.Resolve(s, 1)
		if err != nil {
			t.Fatal(err)
		}
		seen = append(seen, data)
	}

	// Lexical order, hidden files skipped.
	if strings.Join(seen, ",") != "1.ics,2.ics,3.ics" {
		t.Errorf("iterated %v", seen)
	}

	// Exhaustion is permanent.
	for i := 0; i < 2; i++ {
		if more, err := b.Advance(s); err != nil || more {
			t.Errorf("Advance after exhaustion = %t, %v", more, err)
		}
	}
	if more, err := b.HasMore(s); err != nil || more {
		t.Errorf("HasMore after exhaustion = %t, %v", more, err)
	}
}

const sampleEvent = `BEGIN:VCALENDAR
VERSION:2.0
BEGIN:VEVENT
UID:original-uid@example.com
SUMMARY:Team meeting
DTSTART;VALUE=DATE:20010506
DTEND;VALUE=DATE:20010507
END:VEVENT
END:VCALENDAR
`

func TestBodyGenerateCalendarData(t *testing.T) {
	s := newBodyTestSession("")
	b := &Body{
		ContentType: "text/calendar; charset=utf-8",
		Value:       sampleEvent,
		Generate:    true,
	}
	got, err := b.Resolve(s, 4)
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(got, "original-uid@example.com") {
		t.Error("UID not regenerated")
	}
	if !regexp.MustCompile(`UID:[0-9a-f-]{36}`).MatchString(got) {
		t.Errorf("no generated UID in %q", got)
	}
	if !strings.Contains(got, "SUMMARY:Team meeting #4") {
		t.Errorf("summary not stamped: %q", got)
	}
	today := time.Now().Format("20060102")
	if !strings.Contains(got, "DTSTART;VALUE=DATE:"+today) {
		t.Errorf("DTSTART not restamped: %q", got)
	}
	if !strings.Contains(got, "DTEND;VALUE=DATE:"+today) {
		t.Errorf("DTEND not restamped: %q", got)
	}
}

func TestBodyGenerateNonCalendar(t *testing.T) {
	s := newBodyTestSession("")
	b := &Body{
		ContentType: "text/xml",
		Value:       "UID:stay-put",
		Generate:    true,
	}
	got, err := b.Resolve(s, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != "UID:stay-put" {
		t.Errorf("non calendar data rewritten: %q", got)
	}
}
