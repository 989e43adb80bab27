// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davtest

import "fmt"

// ConfigError reports a problem in the test definition itself: an unknown
// plugin identifier, an unsupported digest algorithm, a malformed grab.
// Configuration errors abort the offending request immediately and are
// never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Reason
}

func configErrorf(format string, a ...interface{}) error {
	return &ConfigError{Reason: fmt.Sprintf(format, a...)}
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	_, ok := err.(*ConfigError)
	return ok
}
