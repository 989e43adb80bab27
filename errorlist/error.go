// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errorlist collects multiple errors into one while keeping
// the first one addressable: the harness reports all failures of a run
// but surfaces the first failing message as the run's verdict.
package errorlist

import (
	"fmt"
	"os"
	"strings"
)

// List is a collection of errors.
type List []error

// Append err to el. Nil errors are dropped, nested lists flattened.
func (el List) Append(err error) List {
	if err == nil {
		return el
	}
	if list, ok := err.(List); ok {
		return append(el, list...)
	}
	return append(el, err)
}

// Appendf formats and appends an error.
func (el List) Appendf(format string, a ...interface{}) List {
	return append(el, fmt.Errorf(format, a...))
}

// Error implements the error interface.
func (el List) Error() string {
	return strings.Join(el.AsStrings(), "; ")
}

// First returns the first collected error or nil. This is the message
// a failed request surfaces.
func (el List) First() error {
	if len(el) == 0 {
		return nil
	}
	return el[0]
}

// AsError returns el, properly returning nil for an empty el.
func (el List) AsError() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// AsStrings returns the error list as a string slice, flattening
// nested lists.
func (el List) AsStrings() []string {
	s := []string{}
	for _, e := range el {
		if nel, ok := e.(List); ok {
			s = append(s, nel.AsStrings()...)
		} else {
			s = append(s, e.Error())
		}
	}
	return s
}

// PrintlnStderr prints err to stderr, one line per collected error.
func PrintlnStderr(err error) {
	if err == nil {
		return
	}
	if el, ok := err.(List); ok {
		for _, msg := range el.AsStrings() {
			fmt.Fprintln(os.Stderr, msg)
		}
	} else {
		fmt.Fprintln(os.Stderr, err.Error())
	}
}
