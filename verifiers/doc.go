// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package verifiers contains the concrete verifier plugins shipped
// with the harness. Each plugin registers itself under its callback
// name in an init function; importing the package (usually blank, from
// the command) makes all of them available to test definitions:
//
//	import _ "github.com/davtools/davtest/verifiers"
//
// Verifier arguments arrive as a name → value-list mapping taken
// verbatim from the test definition, with substitution already
// applied.
package verifiers
