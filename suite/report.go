// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package suite

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/davtools/davtest"
	"github.com/davtools/davtest/errorlist"
)

// Stats are the accumulated counts of one run.
type Stats struct {
	Files, Suites, Tests    int
	Passed, Failed, Skipped int
	Errored                 int
	Duration                time.Duration
}

// Account adds the outcome of an executed file.
func (st *Stats) Account(f *TestFile) {
	st.Files++
	st.Duration += f.Duration
	for _, su := range f.Suites {
		st.Suites++
		for _, t := range su.Tests {
			st.Tests++
			switch t.Status {
			case davtest.Pass:
				st.Passed++
			case davtest.Fail:
				st.Failed++
			case davtest.Error:
				st.Errored++
			default:
				st.Skipped++
			}
		}
	}
}

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
	skipColor = color.New(color.FgYellow)
)

func statusColor(s davtest.Status) *color.Color {
	switch s {
	case davtest.Fail, davtest.Error:
		return failColor
	case davtest.Pass:
		return passColor
	}
	return skipColor
}

// PrintReport writes a human readable report of an executed file to w:
// one line per test, grouped by suite, followed by timing lines for
// tests marked stats and the failure list.
func PrintReport(w io.Writer, f *TestFile) {
	statusColor(f.Status).Fprintf(w, "%-7s", f.Status)
	fmt.Fprintf(w, " %s (%s)\n", f.Name, f.Duration.Round(time.Millisecond))

	failures := errorlist.List{}
	for _, su := range f.Suites {
		fmt.Fprintf(w, "  Suite %s\n", su.Name)
		for _, t := range su.Tests {
			statusColor(t.Status).Fprintf(w, "    %-7s", t.Status)
			fmt.Fprintf(w, " %s", t.Name)
			if t.Reason != "" {
				fmt.Fprintf(w, ": %s", t.Reason)
			}
			fmt.Fprintln(w)
			if t.Status > davtest.Pass {
				failures = failures.Appendf("%s / %s: %s", su.Name, t.Name, t.Reason)
			}
		}
	}

	for _, su := range f.Suites {
		for _, t := range su.Tests {
			if t.Stats && t.Status != davtest.Skipped {
				fmt.Fprintf(w, "  timing %-40s %s\n", t.Name, t.Duration.Round(time.Millisecond))
			}
		}
	}

	if err := failures.AsError(); err != nil {
		failColor.Fprintf(w, "  %d failing test(s):\n", len(failures))
		for _, msg := range failures.AsStrings() {
			fmt.Fprintf(w, "    %s\n", msg)
		}
	}
}

// PrintSummary writes the end-of-run totals.
func (st *Stats) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "%d files, %d suites, %d tests: ", st.Files, st.Suites, st.Tests)
	passColor.Fprintf(w, "%d passed", st.Passed)
	fmt.Fprint(w, ", ")
	failColor.Fprintf(w, "%d failed", st.Failed+st.Errored)
	fmt.Fprint(w, ", ")
	skipColor.Fprintf(w, "%d skipped", st.Skipped)
	fmt.Fprintf(w, " in %s\n", st.Duration.Round(time.Millisecond))
}
