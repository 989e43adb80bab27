// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loader parses the XML configuration of a run: the server
// information file and the test definition files.
package loader

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/imdario/mergo"

	"github.com/davtools/davtest"
)

// ServerFile is the parsed server information file together with the
// session settings it carries.
type ServerFile struct {
	Info *davtest.ServerInfo

	// WaitAttempts and WaitInterval configure the wait-for-success
	// poll. Zero means the session default.
	WaitAttempts int
	WaitInterval time.Duration
}

// NewSession builds a session from the parsed file.
func (sf *ServerFile) NewSession() *davtest.Session {
	s := davtest.NewSession(sf.Info)
	if sf.WaitAttempts > 0 {
		s.WaitAttempts = sf.WaitAttempts
	}
	if sf.WaitInterval > 0 {
		s.WaitInterval = sf.WaitInterval
	}
	return s
}

// LoadServerInfo parses a server information file. Entries of
// overrides win over substitutions declared in the file, so callers
// can inject values from the environment or the command line.
//
// The file looks like
//
//	<serverinfo>
//	  <host>calendar.example.com</host>
//	  <port>8008</port>
//	  <authtype>digest</authtype>
//	  <user>user01</user>
//	  <pswd>pswd01</pswd>
//	  <waitcount>30</waitcount>
//	  <waitdelay>0.25</waitdelay>
//	  <features>
//	    <feature>caldav</feature>
//	  </features>
//	  <substitutions>
//	    <substitution>
//	      <key>$principal1:</key>
//	      <value>/principals/users/user01/</value>
//	    </substitution>
//	  </substitutions>
//	</serverinfo>
//
// Substitution keys keep the original $name: spelling; the
// delimiters are stripped when the store is built.
func LoadServerInfo(path string, overrides map[string]string) (*ServerFile, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil || root.Tag != "serverinfo" {
		return nil, fmt.Errorf("%s: not a serverinfo document", path)
	}

	info := &davtest.ServerInfo{Features: davtest.FeatureSet{}}
	sf := &ServerFile{Info: info}
	subs := map[string]string{}

	for _, el := range root.ChildElements() {
		text := strings.TrimSpace(el.Text())
		switch el.Tag {
		case "host":
			info.Target.Host = text
		case "port":
			p, err := strconv.Atoi(text)
			if err != nil {
				return nil, fmt.Errorf("%s: bad port %q", path, text)
			}
			info.Target.Port = p
		case "ssl":
			info.Target.TLS = true
		case "unix":
			info.Target.UnixSocket = text
		case "host2":
			info.Target2.Host = text
		case "port2":
			p, err := strconv.Atoi(text)
			if err != nil {
				return nil, fmt.Errorf("%s: bad port2 %q", path, text)
			}
			info.Target2.Port = p
		case "authtype":
			info.AuthType = text
		case "user":
			info.User = text
		case "pswd":
			info.Pswd = text
		case "datadir":
			info.DataDir = text
		case "waitcount":
			n, err := strconv.Atoi(text)
			if err != nil {
				return nil, fmt.Errorf("%s: bad waitcount %q", path, text)
			}
			sf.WaitAttempts = n
		case "waitdelay":
			secs, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: bad waitdelay %q", path, text)
			}
			sf.WaitInterval = time.Duration(secs * float64(time.Second))
		case "features":
			for _, f := range el.ChildElements() {
				if f.Tag == "feature" {
					info.Features.Add(strings.TrimSpace(f.Text()))
				}
			}
		case "substitutions":
			for _, sub := range el.ChildElements() {
				if sub.Tag != "substitution" {
					continue
				}
				key := strings.TrimSpace(childText(sub, "key"))
				value := childText(sub, "value")
				if key == "" {
					continue
				}
				subs[trimKey(key)] = value
			}
		}
	}

	// The secondary endpoint shares scheme and socket family with the
	// primary one.
	if info.Target2.Host != "" {
		info.Target2.TLS = info.Target.TLS
		if info.Target2.Port == 0 {
			info.Target2.Port = info.Target.Port
		}
	}

	if len(overrides) > 0 {
		trimmed := make(map[string]string, len(overrides))
		for k, v := range overrides {
			trimmed[trimKey(k)] = v
		}
		if err := mergo.Merge(&subs, trimmed, mergo.WithOverride); err != nil {
			return nil, err
		}
	}
	info.Subs = davtest.NewSubstitutions(subs)
	return sf, nil
}

// trimKey strips the $name: delimiters of a substitution key.
func trimKey(key string) string {
	key = strings.TrimPrefix(key, "$")
	return strings.TrimSuffix(key, ":")
}

// childText returns the text of the first child element with the given
// tag, or "".
func childText(el *etree.Element, tag string) string {
	if c := el.SelectElement(tag); c != nil {
		return c.Text()
	}
	return ""
}
