// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verifiers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/davtools/davtest"
)

func init() {
	davtest.RegisterVerifier("htmlSelect", func() davtest.ResponseVerifier {
		return &HTMLSelect{}
	})
}

// HTMLSelect checks HTML response bodies via CSS selectors. Some
// servers answer plain HTML for error and landing pages; this verifier
// covers those responses.
//
// Arguments:
//
//	selector  the CSS selector; at least one node must match
//	match     optional regular expression the matched node's text
//	          content must satisfy
type HTMLSelect struct{}

// Verify implements ResponseVerifier.
func (HTMLSelect) Verify(s *davtest.Session, uri string, resp *davtest.Response, body string, args davtest.Args) (bool, string) {
	selector := args.First("selector", "")
	if selector == "" {
		return false, "no selector given"
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return false, fmt.Sprintf("bad selector %q: %s", selector, err)
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return false, fmt.Sprintf("could not parse HTML response: %s", err)
	}
	node := sel.MatchFirst(doc)
	if node == nil {
		return false, fmt.Sprintf("no node matches %q", selector)
	}

	if pattern := args.First("match", ""); pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Sprintf("bad pattern %q: %s", pattern, err)
		}
		text := nodeText(node)
		if !re.MatchString(text) {
			return false, fmt.Sprintf("node text %q does not match %q", text, pattern)
		}
	}
	return true, ""
}

func nodeText(node *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return strings.TrimSpace(b.String())
}
