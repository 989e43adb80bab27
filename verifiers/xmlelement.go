// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verifiers

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/davtools/davtest"
)

func init() {
	davtest.RegisterVerifier("xmlElementMatch", func() davtest.ResponseVerifier {
		return &XMLElementMatch{}
	})
}

// XMLElementMatch checks elements of an XML response body. Locators
// are /-separated paths of element names, each either a bare local
// name or Clark notation {namespace}name.
//
// Arguments:
//
//	exists     each locator must match at least one element
//	notexists  no locator may match an element
//	values     expectations of the form "locator$text": the first
//	           matching element's text must equal text
type XMLElementMatch struct{}

// Verify implements ResponseVerifier.
func (XMLElementMatch) Verify(s *davtest.Session, uri string, resp *davtest.Response, body string, args davtest.Args) (bool, string) {
	if resp.Response.StatusCode >= 300 {
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

	for _, locator := range args["exists"] {
		if len(davtest.FindElements(root, locator)) == 0 {
			return false, fmt.Sprintf("element %s not found", locator)
		}
	}
	for _, locator := range args["notexists"] {
		if len(davtest.FindElements(root, locator)) > 0 {
			return false, fmt.Sprintf("forbidden element %s found", locator)
		}
	}
	for _, spec := range args["values"] {
		locator, want := spec, ""
		if i := strings.IndexByte(spec, '$'); i >= 0 {
			locator, want = spec[:i], spec[i+1:]
		}
		els := davtest.FindElements(root, locator)
		if len(els) == 0 {
			return false, fmt.Sprintf("element %s not found", locator)
		}
		if got := els[0].Text(); got != want {
			return false, fmt.Sprintf("element %s is %q, want %q", locator, got, want)
		}
	}
	return true, ""
}
