// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// report.go provides the Status type and the Outcome of an executed
// request.

package davtest

import (
	"fmt"
	"time"
)

// ----------------------------------------------------------------------------
// Status

// Status describes the outcome of a Request or of a single verifier.
type Status int

const (
	NotRun  Status = iota // Not yet executed
	Skipped               // Omitted deliberately, e.g. due to feature gating
	Pass                  // That's what we want
	Fail                  // One or more verifiers failed
	Error                 // Transport failure or bad configuration
)

func (s Status) String() string {
	return []string{"NotRun", "Skipped", "Pass", "Fail", "Error"}[int(s)]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if s < NotRun || s > Error {
		return []byte(""), fmt.Errorf("no such status %d", s)
	}
	return []byte(s.String()), nil
}

// ----------------------------------------------------------------------------
// Outcome

// Verdict is the result of one verifier invocation.
type Verdict struct {
	// Callback is the verifier name as registered.
	Callback string

	// Status is Pass, Fail or Error (for configuration problems).
	Status Status

	// Message is the verifier's diagnostic text, preserved verbatim.
	Message string
}

// Outcome captures the result of executing a Request including the
// verdicts of all verifiers which ran.
type Outcome struct {
	Status   Status
	Duration time.Duration

	// Reason holds the skip reason or, for failed requests, the first
	// failing verifier message.
	Reason string

	// Err is set for transport and configuration errors.
	Err error

	// Verdicts are the individual verifier results across all
	// repetitions in invocation order.
	Verdicts []Verdict
}

// update merges the status of one repetition into the overall outcome.
// A later repetition can only make things worse, never undo a failure.
func (o *Outcome) update(s Status, reason string, err error) {
	if s > o.Status {
		o.Status = s
		if o.Reason == "" {
			o.Reason = reason
		}
		if o.Err == nil {
			o.Err = err
		}
	}
}
