// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// script.go contains a verifier based on otto, a JavaScript
// interpreter.

package verifiers

import (
	"strings"

	"github.com/robertkrimen/otto"

	"github.com/davtools/davtest"
)

func init() {
	davtest.RegisterVerifier("customScript", func() davtest.ResponseVerifier {
		return &CustomScript{}
	})
}

// CustomScript evaluates JavaScript against the response. The bindings
// "status" (number), "uri", "body" (strings) and "headers" (object of
// value lists) are available at top level.
//
// The script's last value indicates success or failure:
//   - success: true, 0, ""
//   - failure: anything else; the value's string form becomes the
//     diagnostic message
//
// Arguments:
//
//	script  the code; multiple values are joined by newlines
type CustomScript struct{}

// Verify implements ResponseVerifier.
func (CustomScript) Verify(s *davtest.Session, uri string, resp *davtest.Response, body string, args davtest.Args) (bool, string) {
	code := strings.Join(args["script"], "\n")
	if code == "" {
		return false, "no script given"
	}

	vm := otto.New()
	vm.Set("status", resp.Response.StatusCode)
	vm.Set("uri", uri)
	vm.Set("body", body)
	headers := map[string][]string(resp.Response.Header)
	vm.Set("headers", headers)

	val, err := vm.Run(code)
	if err != nil {
		return false, "script failed: " + err.Error()
	}
	str, err := val.ToString()
	if err != nil {
		return false, "script failed: " + err.Error()
	}
	if str == "true" || str == "0" || str == "" {
		return true, ""
	}
	return false, str
}
