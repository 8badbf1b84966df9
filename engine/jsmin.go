// Copyright 2013 Dmitry Chestnykh. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

// `jsmin` minifies JavaScript with Douglas Crockford's algorithm.

import (
	"github.com/dchest/jsmin"

	"github.com/dchest/minsave/document"
)

func init() {
	Register(JSMin(0))
}

type JSMin int

func (e JSMin) Name() string { return "jsmin" }

func (e JSMin) Supports(kind document.Kind) bool { return kind == document.JS }

func (e JSMin) Minify(req *Request) (*Result, error) {
	out, err := jsmin.Minify(req.Source)
	if err != nil {
		return nil, err
	}
	return &Result{Code: out}, nil
}
