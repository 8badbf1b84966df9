// Copyright 2013 Dmitry Chestnykh. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package engine implements adapters for external minifiers.
package engine

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dchest/minsave/config"
	"github.com/dchest/minsave/document"
)

// DefaultName is the name of the engine used when options
// don't contain the "engine" key.
const DefaultName = "esbuild"

// Request is a minification request.
type Request struct {
	Kind     document.Kind
	Source   []byte
	Filename string // base name, used in source maps and messages
	Options  config.Options
}

// Result is a result of minification. Map is nil if no source map
// was requested or the engine doesn't generate them.
type Result struct {
	Code []byte
	Map  []byte
}

// Engine is an interface declaring a minifier.
type Engine interface {
	Name() string
	Supports(kind document.Kind) bool
	Minify(req *Request) (*Result, error)
}

// engines stores registered engines addressed by their names.
var engines = make(map[string]Engine)

// Register registers a new engine.
func Register(e Engine) {
	engines[e.Name()] = e
}

// Get returns the engine selected by the "engine" key of options
// for the kind of document.
func Get(kind document.Kind, opts config.Options) (Engine, error) {
	name := DefaultName
	if v, ok := opts["engine"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("engine must be a string")
		}
		name = s
	}
	e := engines[name]
	if e == nil {
		return nil, fmt.Errorf("engine %s not found", name)
	}
	if !e.Supports(kind) {
		return nil, fmt.Errorf("engine %s doesn't support %s", name, kind)
	}
	return e, nil
}

// MapRequest describes a requested source map.
type MapRequest struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// RequestedMap returns the source map request stored under the
// "sourceMap" key of options: either true or an object with
// filename and url. It returns nil if no map was requested.
func RequestedMap(opts config.Options) *MapRequest {
	switch v := opts["sourceMap"].(type) {
	case bool:
		if v {
			return &MapRequest{}
		}
	case map[string]interface{}:
		return mapRequest(v)
	case config.Options:
		// Nested mappings read from YAML settings.
		return mapRequest(v)
	}
	return nil
}

func mapRequest(m map[string]interface{}) *MapRequest {
	var mr MapRequest
	mr.Filename, _ = m["filename"].(string)
	mr.URL, _ = m["url"].(string)
	return &mr
}

// decodeOptions decodes options blob into v,
// ignoring keys that v doesn't declare.
func decodeOptions(opts config.Options, v interface{}) error {
	b, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("bad options: %s", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("bad options: %s", err)
	}
	return nil
}

// switchedOn returns false only if the raw value is JSON false.
// Objects, such as uglify-style "compress: {...}", mean true.
func switchedOn(raw json.RawMessage) bool {
	return !bytes.Equal(bytes.TrimSpace(raw), []byte("false"))
}
