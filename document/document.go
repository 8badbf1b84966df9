// Copyright 2013 Dmitry Chestnykh. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package document describes source documents that can be minified.
package document

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Kind is a language kind of a document.
type Kind int

const (
	Unknown Kind = iota
	JS
	CSS
)

func (k Kind) String() string {
	switch k {
	case JS:
		return "javascript"
	case CSS:
		return "css"
	default:
		return "unknown"
	}
}

// Marker is the filename segment which marks minified files.
const Marker = "min"

// KindFromLanguage returns kind for the editor language id.
func KindFromLanguage(id string) Kind {
	switch strings.ToLower(id) {
	case "javascript", "js":
		return JS
	case "css":
		return CSS
	default:
		return Unknown
	}
}

// KindFromPath returns kind guessed from the file extension.
func KindFromPath(filename string) Kind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".js", ".mjs", ".cjs":
		return JS
	case ".css":
		return CSS
	default:
		return Unknown
	}
}

// Document is a source document.
// Empty Path means that the document was never saved.
type Document struct {
	Path string
	Kind Kind
	Text []byte
}

// Open reads a document from file. If lang is not empty, it is used
// as the language id instead of guessing kind from extension.
func Open(fs afero.Fs, filename, lang string) (*Document, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	b, err := afero.ReadFile(fs, abs)
	if err != nil {
		return nil, err
	}
	kind := KindFromPath(abs)
	if lang != "" {
		kind = KindFromLanguage(lang)
		if kind == Unknown {
			return nil, fmt.Errorf("unknown language %q", lang)
		}
	}
	return &Document{Path: abs, Kind: kind, Text: b}, nil
}

// IsMinified returns true if the second-to-last dot-separated segment
// of the base filename is Marker or one of the extra markers.
func IsMinified(filename string, markers ...string) bool {
	parts := strings.Split(filepath.Base(filename), ".")
	if len(parts) < 2 {
		return false
	}
	seg := parts[len(parts)-2]
	if seg == Marker {
		return true
	}
	for _, m := range markers {
		if m != "" && seg == m {
			return true
		}
	}
	return false
}
