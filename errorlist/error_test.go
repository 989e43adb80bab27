// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package errorlist

import (
	"errors"
	"testing"
)

func TestListAppend(t *testing.T) {
	el := List{}
	el = el.Append(nil)
	if len(el) != 0 {
		t.Errorf("nil append: len = %d", len(el))
	}

	el = el.Append(errors.New("one"))
	el = el.Appendf("two %d", 2)
	nested := List{errors.New("three")}
	el = el.Append(nested)

	if len(el) != 3 {
		t.Fatalf("len = %d", len(el))
	}
	if el.First().Error() != "one" {
		t.Errorf("First = %q", el.First())
	}
	if el.Error() != "one; two 2; three" {
		t.Errorf("Error = %q", el.Error())
	}
}

func TestListAsError(t *testing.T) {
	if err := (List{}).AsError(); err != nil {
		t.Errorf("empty AsError = %v", err)
	}
	el := List{}.Appendf("boom")
	if err := el.AsError(); err == nil {
		t.Error("non-empty AsError = nil")
	}
	if (List{}).First() != nil {
		t.Error("empty First != nil")
	}
}
