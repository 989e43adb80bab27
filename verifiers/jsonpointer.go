// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verifiers

import (
	"fmt"
	"strings"

	"github.com/davtools/davtest"
)

func init() {
	davtest.RegisterVerifier("jsonPointerMatch", func() davtest.ResponseVerifier {
		return &JSONPointerMatch{}
	})
}

// JSONPointerMatch checks values of a JSON response body using gojee
// expressions, e.g. ".added[0].href".
//
// Arguments:
//
//	exists  each expression must evaluate to a value
//	values  expectations of the form "expression$expected": the
//	        expression's (first) value must equal expected
type JSONPointerMatch struct{}

// Verify implements ResponseVerifier.
func (JSONPointerMatch) Verify(s *davtest.Session, uri string, resp *davtest.Response, body string, args davtest.Args) (bool, string) {
	for _, expr := range args["exists"] {
		if _, err := davtest.EvalJSON(expr, body); err != nil {
			return false, fmt.Sprintf("JSON %s: %s", expr, err)
		}
	}
	for _, spec := range args["values"] {
		expr, want := spec, ""
		if i := strings.IndexByte(spec, '$'); i >= 0 {
			expr, want = spec[:i], spec[i+1:]
		}
		values, err := davtest.EvalJSON(expr, body)
		if err != nil {
			return false, fmt.Sprintf("JSON %s: %s", expr, err)
		}
		if len(values) == 0 || values[0] != want {
			return false, fmt.Sprintf("JSON %s is %v, want %q", expr, values, want)
		}
	}
	return true, ""
}
