// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// testfile.go parses test definition files into the suite model. The
// element vocabulary follows the classic conformance test format:
//
//	<davtest ignore-all="no">
//	  <description>...</description>
//	  <require-feature><feature>caldav</feature></require-feature>
//	  <start><request>...</request></start>
//	  <test-suite name="OPTIONS">
//	    <test name="1.1">
//	      <description>...</description>
//	      <request auth="yes">
//	        <method>OPTIONS</method>
//	        <ruri>$principal1:</ruri>
//	        <verify><callback>statusCode</callback></verify>
//	      </request>
//	    </test>
//	  </test-suite>
//	  <end><request>...</request></end>
//	</davtest>

package loader

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/davtools/davtest"
	"github.com/davtools/davtest/suite"
)

// LoadTestFile parses one test definition file. Static substitutions
// of si are applied to URIs, header values, credentials and plugin
// arguments at parse time, the way values captured at run time are
// applied at execution time.
func LoadTestFile(path string, si *davtest.ServerInfo) (*suite.TestFile, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil || root.Tag != "davtest" {
		return nil, fmt.Errorf("%s: not a test definition document", path)
	}

	p := &parser{si: si, path: path}
	f := &suite.TestFile{
		Name:            filepath.Base(path),
		Ignore:          yesNo(root, "ignore-all", false),
		Only:            yesNo(root, "only", false),
		RequireFeatures: davtest.FeatureSet{},
		ExcludeFeatures: davtest.FeatureSet{},
	}

	for _, el := range root.ChildElements() {
		switch el.Tag {
		case "description":
			f.Description = strings.TrimSpace(el.Text())
		case "require-feature":
			p.features(el, f.RequireFeatures)
		case "exclude-feature":
			p.features(el, f.ExcludeFeatures)
		case "start":
			reqs, err := p.requestList(el)
			if err != nil {
				return nil, err
			}
			f.StartRequests = reqs
		case "end":
			reqs, err := p.requestList(el)
			if err != nil {
				return nil, err
			}
			f.EndRequests = reqs
		case "test-suite":
			su, err := p.testSuite(el)
			if err != nil {
				return nil, err
			}
			f.Suites = append(f.Suites, su)
		}
	}
	return f, nil
}

// parser carries the context of one file parse.
type parser struct {
	si   *davtest.ServerInfo
	path string
}

// subs applies the static substitution tier.
func (p *parser) subs(text string) string {
	return p.si.Subs.Resolve(text)
}

func (p *parser) features(el *etree.Element, into davtest.FeatureSet) {
	for _, f := range el.ChildElements() {
		if f.Tag == "feature" {
			into.Add(strings.TrimSpace(f.Text()))
		}
	}
}

func (p *parser) testSuite(el *etree.Element) (*suite.Suite, error) {
	su := &suite.Suite{
		Name:            el.SelectAttrValue("name", ""),
		Ignore:          yesNo(el, "ignore", false),
		Only:            yesNo(el, "only", false),
		RequireFeatures: davtest.FeatureSet{},
		ExcludeFeatures: davtest.FeatureSet{},
	}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "require-feature":
			p.features(child, su.RequireFeatures)
		case "exclude-feature":
			p.features(child, su.ExcludeFeatures)
		case "test":
			t, err := p.test(child)
			if err != nil {
				return nil, err
			}
			su.Tests = append(su.Tests, t)
		}
	}
	return su, nil
}

func (p *parser) test(el *etree.Element) (*suite.Test, error) {
	t := &suite.Test{
		Name:            el.SelectAttrValue("name", ""),
		Ignore:          yesNo(el, "ignore", false),
		Only:            yesNo(el, "only", false),
		Stats:           yesNo(el, "stats", false),
		RequireFeatures: davtest.FeatureSet{},
		ExcludeFeatures: davtest.FeatureSet{},
	}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "description":
			t.Description = strings.TrimSpace(child.Text())
		case "require-feature":
			p.features(child, t.RequireFeatures)
		case "exclude-feature":
			p.features(child, t.ExcludeFeatures)
		case "request":
			r, err := p.request(child)
			if err != nil {
				return nil, err
			}
			t.Steps = append(t.Steps, &suite.Step{Request: r})
		case "pause":
			t.Steps = append(t.Steps, &suite.Step{Pause: pauseDuration(child)})
		}
	}
	return t, nil
}

// requestList parses the request children of a start or end element.
func (p *parser) requestList(el *etree.Element) ([]*davtest.Request, error) {
	var reqs []*davtest.Request
	for _, child := range el.ChildElements() {
		if child.Tag != "request" {
			continue
		}
		r, err := p.request(child)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}

func (p *parser) request(el *etree.Element) (*davtest.Request, error) {
	r := davtest.NewRequest()
	r.Auth = yesNo(el, "auth", true)
	r.User = p.subs(el.SelectAttrValue("user", ""))
	r.Pswd = p.subs(el.SelectAttrValue("pswd", ""))
	r.Cert = p.subs(el.SelectAttrValue("cert", ""))
	r.EndDelete = yesNo(el, "end-delete", false)
	r.IterateData = yesNo(el, "iterate-data", false)
	r.WaitForSuccess = yesNo(el, "wait-for-success", false)
	r.UseHost2 = yesNo(el, "host2", false)
	if v := el.SelectAttrValue("count", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%s: bad request count %q", p.path, v)
		}
		r.Count = n
	}

	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "require-feature":
			p.features(child, r.RequireFeatures)
		case "exclude-feature":
			p.features(child, r.ExcludeFeatures)
		case "method":
			r.Method = strings.TrimSpace(child.Text())
		case "ruri":
			r.RURIs = append(r.RURIs, p.subs(strings.TrimSpace(child.Text())))
		case "header":
			name := strings.TrimSpace(childText(child, "name"))
			value := p.subs(childText(child, "value"))
			if name != "" {
				r.Headers[name] = value
			}
		case "data":
			body, err := p.body(child)
			if err != nil {
				return nil, err
			}
			r.Data = body
		case "verify":
			v, err := p.verify(child)
			if err != nil {
				return nil, err
			}
			r.Verifiers = append(r.Verifiers, v)
		case "graburi":
			r.GrabURI = strings.TrimSpace(child.Text())
		case "grabcount":
			r.GrabCount = strings.TrimSpace(child.Text())
		case "grabheader":
			if g, ok := p.grab(child); ok {
				r.GrabHeader = append(r.GrabHeader, g)
			}
		case "grabproperty":
			if g, ok := p.grab(child); ok {
				r.GrabProperty = append(r.GrabProperty, g)
			}
		case "grabelement":
			if g, ok := p.multiGrab(child); ok {
				r.GrabElement = append(r.GrabElement, g)
			}
		case "grabjson":
			if g, ok := p.multiGrab(child); ok {
				r.GrabJSON = append(r.GrabJSON, g)
			}
		case "grabcalprop":
			if g, ok := p.grab(child); ok {
				r.GrabCalProp = append(r.GrabCalProp, g)
			}
		case "grabcalparam":
			if g, ok := p.grab(child); ok {
				r.GrabCalParam = append(r.GrabCalParam, g)
			}
		case "grabhtml":
			sel := p.subs(childText(child, "selector"))
			variable := p.subs(childText(child, "variable"))
			if sel != "" && variable != "" {
				r.GrabHTML = append(r.GrabHTML, davtest.HTMLGrab{
					Selector:  sel,
					Attribute: childText(child, "attribute"),
					Variable:  variable,
				})
			}
		}
	}
	if r.Method == "" {
		return nil, fmt.Errorf("%s: request without method", p.path)
	}
	return r, nil
}

func (p *parser) body(el *etree.Element) (*davtest.Body, error) {
	b := &davtest.Body{
		Generate: yesNo(el, "generate", false),
	}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "content-type":
			b.ContentType = strings.TrimSpace(child.Text())
		case "filepath":
			b.FilePath = strings.TrimSpace(child.Text())
		case "value":
			b.Value = child.Text()
		case "generator":
			g, err := p.generator(child)
			if err != nil {
				return nil, err
			}
			b.Generator = g
		case "substitute":
			name := strings.TrimSpace(childText(child, "name"))
			value := p.subs(childText(child, "value"))
			if name != "" && value != "" {
				if b.Substitutions == nil {
					b.Substitutions = map[string]string{}
				}
				b.Substitutions[name] = value
			}
		}
	}
	return b, nil
}

func (p *parser) generator(el *etree.Element) (*davtest.GeneratorCall, error) {
	g := &davtest.GeneratorCall{Args: davtest.Args{}}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "callback":
			g.Callback = strings.TrimSpace(child.Text())
		case "arg":
			p.arg(child, g.Args)
		}
	}
	if g.Callback == "" {
		return nil, fmt.Errorf("%s: generator without callback", p.path)
	}
	return g, nil
}

func (p *parser) verify(el *etree.Element) (*davtest.Verify, error) {
	v := &davtest.Verify{
		Args:            davtest.Args{},
		RequireFeatures: davtest.FeatureSet{},
		ExcludeFeatures: davtest.FeatureSet{},
	}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "require-feature":
			p.features(child, v.RequireFeatures)
		case "exclude-feature":
			p.features(child, v.ExcludeFeatures)
		case "callback":
			v.Callback = strings.TrimSpace(child.Text())
		case "arg":
			p.arg(child, v.Args)
		}
	}
	if v.Callback == "" {
		return nil, fmt.Errorf("%s: verify without callback", p.path)
	}
	return v, nil
}

// arg parses a name plus value list pair into args.
func (p *parser) arg(el *etree.Element, args davtest.Args) {
	name := ""
	var values []string
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "name":
			name = strings.TrimSpace(child.Text())
		case "value":
			values = append(values, p.subs(child.Text()))
		}
	}
	if name != "" {
		// An <arg> without values means the empty string, matching
		// boolean-style arguments like <name>exists</name>.
		if values == nil {
			values = []string{""}
		}
		args[name] = append(args[name], values...)
	}
}

// grab parses name/property plus variable into a Grab.
func (p *parser) grab(el *etree.Element) (davtest.Grab, bool) {
	g := davtest.Grab{}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "name", "property":
			g.Name = p.subs(strings.TrimSpace(child.Text()))
		case "variable":
			g.Variable = p.subs(strings.TrimSpace(child.Text()))
		}
	}
	return g, g.Name != "" && g.Variable != ""
}

// multiGrab parses name/property/pointer, optional parent and one or
// more variables into a MultiGrab.
func (p *parser) multiGrab(el *etree.Element) (davtest.MultiGrab, bool) {
	g := davtest.MultiGrab{}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "name", "property", "pointer":
			g.Name = p.subs(strings.TrimSpace(child.Text()))
		case "parent":
			g.Parent = p.subs(strings.TrimSpace(child.Text()))
		case "variable":
			g.Variables = append(g.Variables, p.subs(strings.TrimSpace(child.Text())))
		}
	}
	return g, g.Name != "" && len(g.Variables) > 0
}

// pauseDuration returns the duration of a pause element: its text in
// seconds, one second when empty.
func pauseDuration(el *etree.Element) time.Duration {
	text := strings.TrimSpace(el.Text())
	if text == "" {
		return time.Second
	}
	secs, err := strconv.ParseFloat(text, 64)
	if err != nil || secs <= 0 {
		return time.Second
	}
	return time.Duration(secs * float64(time.Second))
}

// yesNo reads a yes/no attribute.
func yesNo(el *etree.Element, attr string, def bool) bool {
	switch el.SelectAttrValue(attr, "") {
	case "yes":
		return true
	case "no":
		return false
	}
	return def
}
