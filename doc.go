// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package davtest provides the execution engine of a protocol-conformance
// test harness for calendaring and scheduling HTTP servers (CalDAV and
// friends).
//
// The engine consumes declarative request descriptions (normally produced
// by the XML loader in package loader), turns each one into an
// authenticated wire request, captures values out of the response for
// reuse by later requests and dispatches pluggable verification logic
// against the result.
//
// The building blocks are:
//
//   - Substitutions: a two tier store of $name: variables. Static entries
//     are seeded from the server configuration, extra entries are captured
//     while a run progresses and let request N consume values produced by
//     request N-1.
//   - Request: one HTTP call with its target URIs, headers, body source,
//     grabs and verifiers. Request.Execute drives the whole pipeline.
//   - Body: the request body source: a literal value, a file, a directory
//     of fixtures consumed one per call, or a named generator plugin.
//   - DigestCache: cached WWW-Authenticate challenges plus the RFC 2617
//     response computation for Digest authenticated calls.
//   - Grabs: rules extracting header, XML, JSON, HTML or iCalendar values
//     from a response into substitution variables.
//   - ResponseVerifier and BodyGenerator: the plugin contracts. Concrete
//     implementations register themselves by name at startup; see the
//     verifiers and generators packages.
//
// Requests within a run execute strictly sequentially: each one completes,
// including capture and verification, before the next begins. Later
// requests may depend on values captured by earlier ones, so there is no
// intra-run parallelism.
package davtest
