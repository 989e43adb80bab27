// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verifiers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/davtools/davtest"
)

func init() {
	davtest.RegisterVerifier("statusCode", func() davtest.ResponseVerifier {
		return &StatusCode{}
	})
}

// StatusCode checks the HTTP status code of the response.
//
// Arguments:
//
//	status  one or more acceptable codes, either exact ("207") or a
//	        class pattern ("2xx"). Default: 2xx.
type StatusCode struct{}

// Verify implements ResponseVerifier.
func (StatusCode) Verify(s *davtest.Session, uri string, resp *davtest.Response, body string, args davtest.Args) (bool, string) {
	wanted := args["status"]
	if len(wanted) == 0 {
		wanted = []string{"2xx"}
	}

	got := resp.Response.StatusCode
	for _, w := range wanted {
		if statusMatches(got, w) {
			return true, ""
		}
	}
	return false, fmt.Sprintf("HTTP status code wrong: got %d, want %s",
		got, strings.Join(wanted, " or "))
}

func statusMatches(got int, want string) bool {
	if strings.HasSuffix(want, "xx") && len(want) == 3 {
		return strconv.Itoa(got/100) == want[:1]
	}
	n, err := strconv.Atoi(want)
	return err == nil && got == n
}
