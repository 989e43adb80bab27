// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verifiers

import (
	"fmt"
	"strings"

	"github.com/emersion/go-ical"

	"github.com/davtools/davtest"
)

func init() {
	davtest.RegisterVerifier("calendarDataMatch", func() davtest.ResponseVerifier {
		return &CalendarDataMatch{}
	})
}

// CalendarDataMatch checks that the response body is well formed
// iCalendar data with the expected properties.
//
// Arguments:
//
//	exists  property names that must occur somewhere in the object
//	values  expectations of the form "PROP$value": some occurrence of
//	        PROP must have exactly this value
type CalendarDataMatch struct{}

// Verify implements ResponseVerifier.
func (CalendarDataMatch) Verify(s *davtest.Session, uri string, resp *davtest.Response, body string, args davtest.Args) (bool, string) {
	cal, err := ical.NewDecoder(strings.NewReader(body)).Decode()
	if err != nil {
		return false, fmt.Sprintf("response data is not calendar data: %s", err)
	}

	for _, name := range args["exists"] {
		if !propertyExists(cal.Component, strings.ToUpper(name), "") {
			return false, fmt.Sprintf("property %s not found", name)
		}
	}
	for _, spec := range args["values"] {
		name, want := spec, ""
		if i := strings.IndexByte(spec, '$'); i >= 0 {
			name, want = spec[:i], spec[i+1:]
		}
		if !propertyExists(cal.Component, strings.ToUpper(name), want) {
			return false, fmt.Sprintf("no %s property with value %q", name, want)
		}
	}
	return true, ""
}

// propertyExists reports whether the named property occurs in the
// component tree, optionally with the given value.
func propertyExists(comp *ical.Component, name, want string) bool {
	for _, prop := range comp.Props.Values(name) {
		if want == "" || prop.Value == want {
			return true
		}
	}
	for _, child := range comp.Children {
		if propertyExists(child, name, want) {
			return true
		}
	}
	return false
}
