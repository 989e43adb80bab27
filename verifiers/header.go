// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verifiers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/davtools/davtest"
)

func init() {
	davtest.RegisterVerifier("header", func() davtest.ResponseVerifier {
		return &Header{}
	})
}

// Header checks response headers.
//
// Arguments:
//
//	header  one or more expectations of the form
//	        "Name"           header must be present
//	        "Name$pattern"   first header value must match the
//	                         regular expression pattern
//	        "!Name"          header must be absent
type Header struct{}

// Verify implements ResponseVerifier.
func (Header) Verify(s *davtest.Session, uri string, resp *davtest.Response, body string, args davtest.Args) (bool, string) {
	for _, spec := range args["header"] {
		if ok, msg := checkHeader(resp, spec); !ok {
			return false, msg
		}
	}
	return true, ""
}

func checkHeader(resp *davtest.Response, spec string) (bool, string) {
	if strings.HasPrefix(spec, "!") {
		name := spec[1:]
		if resp.Response.Header.Get(name) != "" {
			return false, fmt.Sprintf("forbidden header %s received", name)
		}
		return true, ""
	}

	name, pattern := spec, ""
	if i := strings.IndexByte(spec, '$'); i >= 0 {
		name, pattern = spec[:i], spec[i+1:]
	}

	value := resp.Response.Header.Get(name)
	if value == "" {
		return false, fmt.Sprintf("header %s not received", name)
	}
	if pattern == "" {
		return true, ""
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("bad header pattern %q: %s", pattern, err)
	}
	if !re.MatchString(value) {
		return false, fmt.Sprintf("header %s is %q, want match of %q", name, value, pattern)
	}
	return true, ""
}
