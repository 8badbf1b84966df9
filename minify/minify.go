// Copyright 2013 Dmitry Chestnykh. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package minify validates documents, passes them to minifier
// engines and writes the results.
package minify

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/dchest/minsave/config"
	"github.com/dchest/minsave/document"
	"github.com/dchest/minsave/engine"
	"github.com/dchest/minsave/filewriter"
	"github.com/dchest/minsave/outpath"
	"github.com/dchest/minsave/sourcemap"
	"github.com/dchest/minsave/utils"
)

var (
	ErrNotSaved        = errors.New("no saved file to minify")
	ErrUnsupported     = errors.New("only JavaScript and CSS files can be minified")
	ErrAlreadyMinified = errors.New("file is already minified")
	ErrNoOutputDir     = errors.New("output directory doesn't exist")
	ErrOverwriteSource = errors.New("minified file would overwrite the source")
	ErrEmptyResult     = errors.New("minifier returned empty result")
)

// Error is an error that happened while minifying or writing a file.
type Error struct {
	Op   string // "minify" or "write"
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Outcome describes written files.
type Outcome struct {
	Output string
	Map    string // empty if no map was written
	Sizes  filewriter.Sizes
}

// Minifier minifies documents.
type Minifier struct {
	fs     afero.Fs
	writer *filewriter.FileWriter
	log    *log.Logger
}

// New returns a new minifier which writes files with w.
func New(fs afero.Fs, w *filewriter.FileWriter, logger *log.Logger) *Minifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Minifier{fs: fs, writer: w, log: logger}
}

// validate checks that the document can be minified and returns
// the output path.
func (m *Minifier) validate(c *config.Config, doc *document.Document) (string, error) {
	if doc == nil || doc.Path == "" {
		return "", ErrNotSaved
	}
	if doc.Kind != document.JS && doc.Kind != document.CSS {
		return "", ErrUnsupported
	}
	kc := c.For(doc.Kind)
	if document.IsMinified(doc.Path, kc.Postfix) {
		return "", ErrAlreadyMinified
	}
	outfile := outpath.Derive(doc, c)
	if !utils.DirExist(m.fs, filepath.Dir(outfile)) {
		return "", fmt.Errorf("%w: %s", ErrNoOutputDir, filepath.Dir(outfile))
	}
	if outfile == filepath.Clean(doc.Path) {
		return "", ErrOverwriteSource
	}
	return outfile, nil
}

// Minify minifies the document and writes the result along with
// the source map, if enabled.
//
// Nothing is written if validation fails or the engine doesn't
// return a non-empty result. Validation errors are one of the
// Err* values, engine and write failures are returned as *Error.
func (m *Minifier) Minify(c *config.Config, doc *document.Document) (*Outcome, error) {
	outfile, err := m.validate(c, doc)
	if err != nil {
		return nil, err
	}
	if doc.Kind == document.JS {
		return m.minifyJS(c, doc, outfile)
	}
	return m.minifyCSS(c, doc, outfile)
}

func (m *Minifier) run(doc *document.Document, opts config.Options) (*engine.Result, error) {
	e, err := engine.Get(doc.Kind, opts)
	if err != nil {
		return nil, &Error{Op: "minify", Path: doc.Path, Err: err}
	}
	res, err := e.Minify(&engine.Request{
		Kind:     doc.Kind,
		Source:   doc.Text,
		Filename: filepath.Base(doc.Path),
		Options:  opts,
	})
	if err != nil {
		return nil, &Error{Op: "minify", Path: doc.Path, Err: err}
	}
	if res == nil || len(res.Code) == 0 {
		return nil, &Error{Op: "minify", Path: doc.Path, Err: ErrEmptyResult}
	}
	m.log.Printf("M %s (%s)", doc.Path, e.Name())
	return res, nil
}

func (m *Minifier) write(filename string, data []byte, sizes *filewriter.Sizes) error {
	if err := m.writer.Write(filename, data, sizes); err != nil {
		return &Error{Op: "write", Path: filename, Err: err}
	}
	return nil
}

func (m *Minifier) writeMap(outfile string, data []byte, source string) (string, error) {
	mapfile := outpath.MapPath(outfile)
	data, err := sourcemap.Rewrite(data, filepath.Base(outfile), source)
	if err != nil {
		return "", &Error{Op: "minify", Path: mapfile, Err: err}
	}
	return mapfile, m.write(mapfile, data, nil)
}

func (m *Minifier) minifyJS(c *config.Config, doc *document.Document, outfile string) (*Outcome, error) {
	kc := c.For(document.JS)
	opts := kc.Options
	if kc.GenMap {
		opts = opts.Merge(config.Options{
			"sourceMap": map[string]interface{}{
				"filename": filepath.Base(outfile),
				"url":      filepath.Base(outpath.MapPath(outfile)),
			},
		})
	}
	res, err := m.run(doc, opts)
	if err != nil {
		return nil, err
	}
	o := &Outcome{
		Output: outfile,
		Sizes:  filewriter.Sizes{Before: len(doc.Text), After: len(res.Code)},
	}
	if err := m.write(outfile, res.Code, &o.Sizes); err != nil {
		return nil, err
	}
	if res.Map != nil {
		o.Map, err = m.writeMap(outfile, res.Map, sourcemap.Source(kc.MapSource, doc.Path))
		if err != nil {
			return o, err
		}
	}
	return o, nil
}

func (m *Minifier) minifyCSS(c *config.Config, doc *document.Document, outfile string) (*Outcome, error) {
	kc := c.For(document.CSS)
	opts := kc.Options
	if kc.GenMap {
		opts = opts.Merge(config.Options{"sourceMap": true})
	}
	res, err := m.run(doc, opts)
	if err != nil {
		return nil, err
	}
	o := &Outcome{
		Output: outfile,
		Sizes:  filewriter.Sizes{Before: len(doc.Text), After: len(res.Code)},
	}
	code := res.Code
	if kc.GenMap && res.Map != nil {
		mapname := filepath.Base(outpath.MapPath(outfile))
		code = []byte(strings.TrimRight(string(code), "\n") + "\n" + sourcemap.CSSComment(mapname) + "\n")
	} else if kc.GenMap {
		m.log.Printf("! %s: engine produced no source map", doc.Path)
	}
	if err := m.write(outfile, code, &o.Sizes); err != nil {
		return nil, err
	}
	if kc.GenMap && res.Map != nil {
		o.Map, err = m.writeMap(outfile, res.Map, sourcemap.Source(kc.MapSource, doc.Path))
		if err != nil {
			return o, err
		}
	}
	return o, nil
}

// OnSave minifies the saved document according to the minifyOnSave
// setting. It returns nil outcome and nil error if nothing had to be done.
// Unsupported and already minified documents are skipped silently.
func (m *Minifier) OnSave(c *config.Config, doc *document.Document) (*Outcome, error) {
	if doc == nil || doc.Path == "" {
		return nil, nil
	}
	if doc.Kind != document.JS && doc.Kind != document.CSS {
		return nil, nil
	}
	if document.IsMinified(doc.Path, c.For(doc.Kind).Postfix) {
		return nil, nil
	}
	switch c.MinifyOnSave {
	case config.Always:
		return m.Minify(c, doc)
	case config.Exists:
		if !utils.FileExist(m.fs, outpath.Derive(doc, c)) {
			return nil, nil
		}
		return m.Minify(c, doc)
	default:
		return nil, nil
	}
}

// NewFromConfig returns a new minifier with a file writer
// configured by the compress setting.
func NewFromConfig(fs afero.Fs, c *config.Config, logger *log.Logger) (*Minifier, error) {
	w, err := filewriter.New(fs, logger, c.Compress)
	if err != nil {
		return nil, err
	}
	return New(fs, w, logger), nil
}
