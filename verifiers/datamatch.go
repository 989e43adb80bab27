// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verifiers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davtools/davtest"
)

func init() {
	davtest.RegisterVerifier("dataMatch", func() davtest.ResponseVerifier {
		return &DataMatch{}
	})
}

// DataMatch checks the raw response body.
//
// Arguments:
//
//	equals       the body must equal this value, surrounding
//	             whitespace ignored
//	filepath     like equals, expected value read from a file below
//	             the session's data directory
//	contains     each value must occur in the body
//	notcontains  no value may occur in the body
type DataMatch struct{}

// Verify implements ResponseVerifier.
func (DataMatch) Verify(s *davtest.Session, uri string, resp *davtest.Response, body string, args davtest.Args) (bool, string) {
	if resp.BodyErr != nil {
		return false, fmt.Sprintf("could not read response body: %s", resp.BodyErr)
	}

	if path := args.First("filepath", ""); path != "" {
		if s.Info.DataDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(s.Info.DataDir, path)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return false, fmt.Sprintf("could not read expected data: %s", err)
		}
		expected := s.Info.Subs.ResolveExtra(string(raw))
		if strings.TrimSpace(body) != strings.TrimSpace(expected) {
			return false, fmt.Sprintf("response body does not match %s", path)
		}
	}

	if want := args.First("equals", ""); want != "" {
		if strings.TrimSpace(body) != strings.TrimSpace(want) {
			return false, fmt.Sprintf("response body is %q, want %q", body, want)
		}
	}

	for _, want := range args["contains"] {
		if !strings.Contains(body, want) {
			return false, fmt.Sprintf("response body does not contain %q", want)
		}
	}
	for _, bad := range args["notcontains"] {
		if strings.Contains(body, bad) {
			return false, fmt.Sprintf("response body contains forbidden %q", bad)
		}
	}
	return true, ""
}
