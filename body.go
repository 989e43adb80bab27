// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// body.go resolves a request's declared data source into the bytes
// actually sent: a literal value, a file, a directory of fixtures
// consumed one per call, or a named generator plugin.

package davtest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// iterState tracks the directory iteration cursor of a Body.
type iterState int

const (
	iterIdle iterState = iota
	iterActive
	iterExhausted
)

// Body describes how to obtain the request body.
type Body struct {
	// ContentType is sent as the Content-Type header and controls
	// calendar rewriting for generated bodies.
	ContentType string

	// Value is a literal body. It wins over FilePath.
	Value string

	// FilePath names a file, or a directory when the request iterates
	// over fixtures. Relative paths are taken below the session's
	// DataDir.
	FilePath string

	// Substitutions is the body's private name→value table, applied
	// after the session-wide tiers. Values are resolved against the
	// static tier at parse time.
	Substitutions map[string]string

	// Generate applies calendar-specific rewriting after
	// substitution: a fresh UID, the repetition count appended to
	// SUMMARY, and date-only DTSTART/DTEND values stamped to today.
	Generate bool

	// Generator, if set, delegates body production to a named plugin
	// instead of all of the above.
	Generator *GeneratorCall

	state    iterState
	queue    []string
	nextPath string
}

// path returns the file path with the session's data directory applied.
func (b *Body) path(dataDir string) string {
	if dataDir != "" && !filepath.IsAbs(b.FilePath) {
		return filepath.Join(dataDir, b.FilePath)
	}
	return b.FilePath
}

// Resolve produces the request body for the given repetition. The
// pipeline order is fixed: literal value or file content, static
// substitutions, the $request_count: capture, extra substitutions, the
// body's private table, and finally calendar rewriting or generator
// delegation.
func (b *Body) Resolve(s *Session, count int) (string, error) {
	var data string

	if b.Value != "" {
		data = b.Value
	} else if b.FilePath != "" {
		path := b.nextPath
		if path == "" {
			path = b.path(s.Info.DataDir)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		data = string(raw)
	}

	subs := s.Info.Subs
	data = subs.Resolve(data)
	subs.Capture("request_count", strconv.Itoa(count))
	data = subs.ResolveExtra(data)
	if len(b.Substitutions) > 0 {
		data = ResolveWith(data, b.Substitutions)
	}

	if b.Generate {
		if strings.HasPrefix(b.ContentType, "text/calendar") {
			data = rewriteCalendarData(data, count)
		}
	} else if b.Generator != nil {
		return b.Generator.Generate(s)
	}

	return data, nil
}

// listFixtures returns the lexically sorted non-hidden entries of the
// body's fixture directory.
func (b *Body) listFixtures(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(b.path(dataDir))
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Advance moves the directory iteration cursor to the next fixture
// file and reports whether one remained. Hidden entries are ignored.
// Once the directory is exhausted every further call reports false.
func (b *Body) Advance(s *Session) (bool, error) {
	switch b.state {
	case iterIdle:
		names, err := b.listFixtures(s.Info.DataDir)
		if err != nil {
			return false, err
		}
		b.queue = names
		b.state = iterActive
	case iterExhausted:
		return false, nil
	}

	if len(b.queue) == 0 {
		b.nextPath = ""
		b.state = iterExhausted
		return false, nil
	}
	b.nextPath = filepath.Join(b.path(s.Info.DataDir), b.queue[0])
	b.queue = b.queue[1:]
	return true, nil
}

// HasMore is the non-consuming peek: it reports whether Advance would
// still yield a fixture.
func (b *Body) HasMore(s *Session) (bool, error) {
	switch b.state {
	case iterActive:
		return len(b.queue) > 0 || b.nextPath != "", nil
	case iterExhausted:
		return false, nil
	}
	names, err := b.listFixtures(s.Info.DataDir)
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ----------------------------------------------------------------------------
// Calendar rewriting

var (
	reUID     = regexp.MustCompile(`UID:.*`)
	reSummary = regexp.MustCompile(`SUMMARY:(.*)`)
	reDTStart = regexp.MustCompile(`(DTSTART;[^:]*):[0-9]{8}`)
	reDTEnd   = regexp.MustCompile(`(DTEND;[^:]*):[0-9]{8}`)
)

// rewriteCalendarData regenerates the UID, appends the repetition
// count to SUMMARY and stamps date-only DTSTART/DTEND values to the
// current date. Recurrence override components are not rewritten
// correctly: their RECURRENCE-ID keeps the original date.
func rewriteCalendarData(data string, count int) string {
	data = reUID.ReplaceAllString(data, "UID:"+uuid.New().String())
	data = reSummary.ReplaceAllString(data, fmt.Sprintf("SUMMARY:$1 #%d", count))

	today := time.Now().Format("20060102")
	data = reDTStart.ReplaceAllString(data, "${1}:"+today)
	data = reDTEnd.ReplaceAllString(data, "${1}:"+today)
	return data
}
