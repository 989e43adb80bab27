// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verifiers

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/emersion/go-ical"
	"github.com/kr/pretty"

	"github.com/davtools/davtest"
)

func init() {
	davtest.RegisterVerifier("postFreeBusy", func() davtest.ResponseVerifier {
		return &PostFreeBusy{}
	})
}

const nsCalDAV = "urn:ietf:params:xml:ns:caldav"

// PostFreeBusy checks the response of a free-busy-query report: every
// calendar-data object in the multistatus must carry exactly the
// expected FREEBUSY periods, grouped by FBTYPE.
//
// Arguments:
//
//	attendee     restrict checking to VFREEBUSY components whose
//	             ATTENDEE matches one of these values
//	busy         expected FBTYPE=BUSY periods
//	tentative    expected FBTYPE=BUSY-TENTATIVE periods
//	unavailable  expected FBTYPE=BUSY-UNAVAILABLE periods
//	events       expected number of VEVENT components instead of a
//	             period comparison
type PostFreeBusy struct{}

// Verify implements ResponseVerifier.
func (PostFreeBusy) Verify(s *davtest.Session, uri string, resp *davtest.Response, body string, args davtest.Args) (bool, string) {
	if resp.Response.StatusCode != 200 {
		return false, fmt.Sprintf("HTTP status code wrong: %d", resp.Response.StatusCode)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(body); err != nil {
		return false, fmt.Sprintf("could not parse proper XML response: %s", err)
	}
	root := doc.Root()
	if root == nil {
		return false, "could not parse proper XML response: empty document"
	}

	caldata := davtest.FindElements(root, "{"+nsCalDAV+"}calendar-data")
	if len(caldata) == 0 {
		return false, "no calendar data in response"
	}

	wantEvents := -1
	if v := args.First("events", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return false, fmt.Sprintf("bad events argument %q", v)
		}
		wantEvents = n
	}

	for _, el := range caldata {
		cal, err := ical.NewDecoder(strings.NewReader(el.Text())).Decode()
		if err != nil {
			return false, fmt.Sprintf("response data is not calendar data: %s", err)
		}

		if wantEvents >= 0 {
			got := countComponents(cal.Component, ical.CompEvent)
			if got != wantEvents {
				return false, fmt.Sprintf("got %d events, want %d", got, wantEvents)
			}
			continue
		}

		for _, comp := range cal.Children {
			if comp.Name != ical.CompFreeBusy {
				continue
			}
			if !attendeeMatches(comp, args["attendee"]) {
				continue
			}
			got := freeBusyPeriods(comp)
			want := map[string][]string{
				"BUSY":             sortedCopy(args["busy"]),
				"BUSY-TENTATIVE":   sortedCopy(args["tentative"]),
				"BUSY-UNAVAILABLE": sortedCopy(args["unavailable"]),
			}
			for fbtype, periods := range want {
				if !equalStrings(got[fbtype], periods) {
					return false, fmt.Sprintf("free-busy mismatch for %s: got %s, want %s",
						fbtype, pretty.Sprint(got[fbtype]), pretty.Sprint(periods))
				}
			}
		}
	}
	return true, ""
}

// freeBusyPeriods collects the FREEBUSY periods of a VFREEBUSY
// component keyed by FBTYPE, each list sorted. Comma separated period
// lists are split into individual periods.
func freeBusyPeriods(comp *ical.Component) map[string][]string {
	periods := map[string][]string{}
	for _, prop := range comp.Props.Values(ical.PropFreeBusy) {
		fbtype := prop.Params.Get(ical.ParamFreeBusyType)
		if fbtype == "" {
			fbtype = "BUSY"
		}
		for _, p := range strings.Split(prop.Value, ",") {
			periods[fbtype] = append(periods[fbtype], strings.TrimSpace(p))
		}
	}
	for _, list := range periods {
		sort.Strings(list)
	}
	return periods
}

func attendeeMatches(comp *ical.Component, attendees []string) bool {
	if len(attendees) == 0 {
		return true
	}
	prop := comp.Props.Get(ical.PropAttendee)
	if prop == nil {
		return false
	}
	for _, a := range attendees {
		if strings.EqualFold(prop.Value, a) {
			return true
		}
	}
	return false
}

func countComponents(comp *ical.Component, name string) int {
	n := 0
	if comp.Name == name {
		n++
	}
	for _, child := range comp.Children {
		n += countComponents(child, name)
	}
	return n
}

func sortedCopy(s []string) []string {
	c := make([]string, len(s))
	copy(c, s)
	sort.Strings(c)
	return c
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
