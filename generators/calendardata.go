// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package generators contains the concrete body generator plugins
// shipped with the harness. Importing the package (usually blank, from
// the command) registers all of them:
//
//	import _ "github.com/davtools/davtest/generators"
package generators

import (
	"bytes"
	"strconv"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/davtools/davtest"
)

func init() {
	davtest.RegisterGenerator("calendarData", func() davtest.BodyGenerator {
		return &CalendarData{}
	})
}

// CalendarData produces an iCalendar object with a number of
// back-to-back events, each with a fresh UID. Bulk PUTs against a
// collection use it to avoid hand-writing large fixtures.
//
// Arguments:
//
//	count     number of events, default 1
//	summary   event summary, default "event"
//	duration  per-event duration in minutes, default 60
type CalendarData struct{}

// Generate implements BodyGenerator.
func (CalendarData) Generate(s *davtest.Session, args davtest.Args) (string, error) {
	count, err := strconv.Atoi(args.First("count", "1"))
	if err != nil || count < 1 {
		count = 1
	}
	summary := args.First("summary", "event")
	minutes, err := strconv.Atoi(args.First("duration", "60"))
	if err != nil || minutes < 1 {
		minutes = 60
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//davtools//davtest//EN")

	now := time.Now().UTC().Truncate(time.Minute)
	start := time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		ev := ical.NewEvent()
		ev.Props.SetText(ical.PropUID, uuid.New().String())
		ev.Props.SetText(ical.PropSummary, summary+" #"+strconv.Itoa(i+1))
		ev.Props.SetDateTime(ical.PropDateTimeStamp, now)
		ev.Props.SetDateTime(ical.PropDateTimeStart, start)
		ev.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(time.Duration(minutes)*time.Minute))
		cal.Children = append(cal.Children, ev.Component)
		start = start.Add(time.Duration(minutes) * time.Minute)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", err
	}
	return buf.String(), nil
}
