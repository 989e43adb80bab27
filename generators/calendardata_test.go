// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package generators

import (
	"strings"
	"testing"

	"github.com/emersion/go-ical"

	"github.com/davtools/davtest"
)

func TestCalendarDataGenerate(t *testing.T) {
	s := davtest.NewSession(&davtest.ServerInfo{})
	g := CalendarData{}

	out, err := g.Generate(s, davtest.Args{
		"count":   {"3"},
		"summary": {"busy slot"},
	})
	if err != nil {
		t.Fatal(err)
	}

	cal, err := ical.NewDecoder(strings.NewReader(out)).Decode()
	if err != nil {
		t.Fatalf("generated data does not parse: %s", err)
	}

	uids := map[string]bool{}
	events := 0
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		events++
		uid := comp.Props.Get(ical.PropUID)
		if uid == nil || uid.Value == "" {
			t.Fatal("event without UID")
		}
		uids[uid.Value] = true
		summary := comp.Props.Get(ical.PropSummary)
		if summary == nil || !strings.HasPrefix(summary.Value, "busy slot #") {
			t.Errorf("summary = %v", summary)
		}
	}
	if events != 3 {
		t.Errorf("events = %d, want 3", events)
	}
	if len(uids) != 3 {
		t.Errorf("duplicate UIDs: %v", uids)
	}
}

func TestCalendarDataDefaults(t *testing.T) {
	s := davtest.NewSession(&davtest.ServerInfo{})
	g := CalendarData{}

	out, err := g.Generate(s, davtest.Args{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "BEGIN:VEVENT") != 1 {
		t.Errorf("default count != 1:\n%s", out)
	}
	// Bad arguments fall back to the defaults instead of failing the
	// request.
	out, err = g.Generate(s, davtest.Args{"count": {"bogus"}})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "BEGIN:VEVENT") != 1 {
		t.Errorf("bogus count != 1 event:\n%s", out)
	}
}

func TestCalendarDataRegistered(t *testing.T) {
	s := davtest.NewSession(&davtest.ServerInfo{})
	call := &davtest.GeneratorCall{Callback: "calendarData", Args: davtest.Args{"count": {"2"}}}
	out, err := call.Generate(s)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "BEGIN:VEVENT") != 2 {
		t.Errorf("registered generator produced:\n%s", out)
	}
}
