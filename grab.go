// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// grab.go implements the capture stage: after a response arrives,
// designated header, XML, JSON, HTML and iCalendar values are
// extracted and written into the substitution store for later
// requests to consume.
//
// A grab that finds no match is not a hard error by itself: capture
// and verification are decoupled, and a missing capture only manifests
// when a dependent verifier fails because the unresolved token is
// still literally present in its arguments.

package davtest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/beevik/etree"
	"github.com/emersion/go-ical"
	"github.com/nytlabs/gojee"
	"golang.org/x/net/html"
)

// Grab binds one extracted value to one substitution variable. The
// meaning of Name depends on the grab list it sits in: a header name,
// a property locator, a calendar property name or a PROP/PARAM pair.
type Grab struct {
	Name     string
	Variable string
}

// MultiGrab binds one or more sibling values from a single match to
// several variable names positionally. Name is an element locator or a
// gojee expression; Parent optionally scopes element matching to the
// subtree below the first element matching it.
type MultiGrab struct {
	Name      string
	Parent    string
	Variables []string
}

// HTMLGrab extracts an attribute value or the text content of the
// first node matching a CSS selector. The magic attribute "~text~"
// selects the text content.
type HTMLGrab struct {
	Selector  string
	Attribute string
	Variable  string
}

// captureResults runs all grabs of r against the response and mutates
// the substitution store. Misses are logged at debug level only.
func (r *Request) captureResults(s *Session, uri string, resp *Response, body string) {
	subs := s.Info.Subs

	if r.GrabURI != "" {
		subs.Capture(r.GrabURI, uri)
	}
	if r.GrabCount != "" {
		n := countResponses(body)
		subs.Capture(r.GrabCount, strconv.Itoa(n))
	}

	for _, g := range r.GrabHeader {
		if v := resp.Response.Header.Get(g.Name); v != "" {
			subs.Capture(g.Variable, v)
		} else {
			s.Log.Debugf("grabheader %q: no match", g.Name)
		}
	}

	if len(r.GrabProperty) > 0 || len(r.GrabElement) > 0 {
		doc := etree.NewDocument()
		if err := doc.ReadFromString(body); err != nil {
			s.Log.Debugf("grab: response is not XML: %s", err)
		} else if root := doc.Root(); root != nil {
			for _, g := range r.GrabProperty {
				if els := FindElements(root, g.Name); len(els) > 0 {
					subs.Capture(g.Variable, els[0].Text())
				} else {
					s.Log.Debugf("grabproperty %q: no match", g.Name)
				}
			}
			for _, g := range r.GrabElement {
				scope := root
				if g.Parent != "" {
					parents := FindElements(root, g.Parent)
					if len(parents) == 0 {
						s.Log.Debugf("grabelement: parent %q: no match", g.Parent)
						continue
					}
					scope = parents[0]
				}
				els := FindElements(scope, g.Name)
				for i, variable := range g.Variables {
					if i < len(els) {
						subs.Capture(variable, els[i].Text())
					} else {
						s.Log.Debugf("grabelement %q: only %d matches for %d variables",
							g.Name, len(els), len(g.Variables))
						break
					}
				}
			}
		}
	}

	for _, g := range r.GrabJSON {
		values, err := EvalJSON(g.Name, body)
		if err != nil {
			s.Log.Debugf("grabjson %q: %s", g.Name, err)
			continue
		}
		for i, variable := range g.Variables {
			if i < len(values) {
				subs.Capture(variable, values[i])
			}
		}
	}

	if len(r.GrabCalProp) > 0 || len(r.GrabCalParam) > 0 {
		cal, err := ical.NewDecoder(strings.NewReader(body)).Decode()
		if err != nil {
			s.Log.Debugf("grab: response is not calendar data: %s", err)
		} else {
			for _, g := range r.GrabCalProp {
				if v, ok := calendarProperty(cal.Component, g.Name); ok {
					subs.Capture(g.Variable, v)
				} else {
					s.Log.Debugf("grabcalprop %q: no match", g.Name)
				}
			}
			for _, g := range r.GrabCalParam {
				if v, ok := calendarParameter(cal.Component, g.Name); ok {
					subs.Capture(g.Variable, v)
				} else {
					s.Log.Debugf("grabcalparam %q: no match", g.Name)
				}
			}
		}
	}

	for _, g := range r.GrabHTML {
		if v, ok := htmlValue(body, g.Selector, g.Attribute); ok {
			subs.Capture(g.Variable, v)
		} else {
			s.Log.Debugf("grabhtml %q: no match", g.Selector)
		}
	}
}

// ----------------------------------------------------------------------------
// XML helpers

// splitClark splits a {namespace}local locator.
func splitClark(locator string) (ns, local string) {
	if strings.HasPrefix(locator, "{") {
		if i := strings.IndexByte(locator, '}'); i > 0 {
			return locator[1:i], locator[i+1:]
		}
	}
	return "", locator
}

// matchElement reports whether el matches a single locator segment,
// either a bare local name or Clark notation {namespace}name.
func matchElement(el *etree.Element, locator string) bool {
	ns, local := splitClark(locator)
	if el.Tag != local {
		return false
	}
	return ns == "" || el.NamespaceURI() == ns
}

// FindElements returns, in document order, all descendants of root
// matching the locator. A locator may be a /-separated path of
// segments; the first segment matches anywhere below root, the
// remaining segments match direct children.
func FindElements(root *etree.Element, locator string) []*etree.Element {
	segments := strings.Split(strings.Trim(locator, "/"), "/")

	var deep func(el *etree.Element, seg string, out []*etree.Element) []*etree.Element
	deep = func(el *etree.Element, seg string, out []*etree.Element) []*etree.Element {
		for _, child := range el.ChildElements() {
			if matchElement(child, seg) {
				out = append(out, child)
			}
			out = deep(child, seg, out)
		}
		return out
	}

	matches := deep(root, segments[0], nil)
	if matchElement(root, segments[0]) {
		matches = append([]*etree.Element{root}, matches...)
	}
	for _, seg := range segments[1:] {
		next := []*etree.Element{}
		for _, m := range matches {
			for _, child := range m.ChildElements() {
				if matchElement(child, seg) {
					next = append(next, child)
				}
			}
		}
		matches = next
	}
	return matches
}

// countResponses counts {DAV:}response elements in a multistatus body,
// the value a grabcount rule stores.
func countResponses(body string) int {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(body); err != nil {
		return 0
	}
	root := doc.Root()
	if root == nil {
		return 0
	}
	return len(FindElements(root, "{DAV:}response"))
}

// ----------------------------------------------------------------------------
// JSON helpers

// EvalJSON evaluates a gojee expression against a JSON body. A scalar
// result yields one value; an array result yields its elements in
// order for positional binding.
func EvalJSON(expr, body string) ([]string, error) {
	tokens, err := jee.Lexer(expr)
	if err != nil {
		return nil, err
	}
	tree, err := jee.Parser(tokens)
	if err != nil {
		return nil, err
	}
	var msg jee.BMsg
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return nil, err
	}
	result, err := jee.Eval(tree, msg)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("no match for %q", expr)
	}
	if list, ok := result.([]interface{}); ok {
		values := make([]string, len(list))
		for i, v := range list {
			values[i] = jsonScalar(v)
		}
		return values, nil
	}
	return []string{jsonScalar(result)}, nil
}

func jsonScalar(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		raw, _ := json.Marshal(t)
		return string(raw)
	}
}

// ----------------------------------------------------------------------------
// Calendar helpers

// calendarProperty finds the first occurrence of the named property
// anywhere in the component tree and returns its value.
func calendarProperty(comp *ical.Component, name string) (string, bool) {
	if prop := comp.Props.Get(strings.ToUpper(name)); prop != nil {
		return prop.Value, true
	}
	for _, child := range comp.Children {
		if v, ok := calendarProperty(child, name); ok {
			return v, true
		}
	}
	return "", false
}

// calendarParameter finds a property parameter by a PROP/PARAM
// locator, e.g. ATTENDEE/PARTSTAT.
func calendarParameter(comp *ical.Component, locator string) (string, bool) {
	parts := strings.SplitN(locator, "/", 2)
	if len(parts) != 2 {
		return "", false
	}
	propName, paramName := strings.ToUpper(parts[0]), strings.ToUpper(parts[1])

	var find func(c *ical.Component) (string, bool)
	find = func(c *ical.Component) (string, bool) {
		if prop := c.Props.Get(propName); prop != nil {
			if v := prop.Params.Get(paramName); v != "" {
				return v, true
			}
		}
		for _, child := range c.Children {
			if v, ok := find(child); ok {
				return v, true
			}
		}
		return "", false
	}
	return find(comp)
}

// ----------------------------------------------------------------------------
// HTML helpers

// htmlValue extracts an attribute or the text content of the first
// node matching the CSS selector.
func htmlValue(body, selector, attribute string) (string, bool) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return "", false
	}
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", false
	}
	node := sel.MatchFirst(doc)
	if node == nil {
		return "", false
	}
	if attribute == "" || attribute == "~text~" {
		return textContent(node), true
	}
	for _, a := range node.Attr {
		if a.Key == attribute {
			return a.Val, true
		}
	}
	return "", false
}

// textContent returns the trimmed text below node.
func textContent(node *html.Node) string {
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
