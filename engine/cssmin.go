// Copyright 2013 Dmitry Chestnykh. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

// `cssmin` minifies CSS.

import (
	"github.com/dchest/cssmin"

	"github.com/dchest/minsave/document"
)

func init() {
	Register(CSSMin(0))
}

type CSSMin int

func (e CSSMin) Name() string { return "cssmin" }

func (e CSSMin) Supports(kind document.Kind) bool { return kind == document.CSS }

func (e CSSMin) Minify(req *Request) (*Result, error) {
	return &Result{Code: cssmin.Minify(req.Source)}, nil
}
