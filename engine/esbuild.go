package engine

// `esbuild` minifies JavaScript and CSS and generates source maps.

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/dchest/minsave/document"
	"github.com/dchest/minsave/sourcemap"
)

func init() {
	Register(Esbuild(0))
}

type Esbuild int

type esbuildOptions struct {
	Mangle        json.RawMessage `json:"mangle"`
	Compress      json.RawMessage `json:"compress"`
	Whitespace    json.RawMessage `json:"whitespace"`
	KeepNames     bool            `json:"keepNames"`
	Target        string          `json:"target"`
	LegalComments string          `json:"legalComments"`
	DropConsole   bool            `json:"dropConsole"`
	DropDebugger  bool            `json:"dropDebugger"`
}

var esbuildTargets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

var esbuildLegalComments = map[string]api.LegalComments{
	"none":   api.LegalCommentsNone,
	"inline": api.LegalCommentsInline,
	"eof":    api.LegalCommentsEndOfFile,
}

func (e Esbuild) Name() string { return "esbuild" }

func (e Esbuild) Supports(kind document.Kind) bool {
	return kind == document.JS || kind == document.CSS
}

func (e Esbuild) transformOptions(req *Request) (api.TransformOptions, error) {
	var o esbuildOptions
	if err := decodeOptions(req.Options, &o); err != nil {
		return api.TransformOptions{}, err
	}
	t := api.TransformOptions{
		Loader:            api.LoaderJS,
		Sourcefile:        req.Filename,
		MinifyIdentifiers: switchedOn(o.Mangle),
		MinifySyntax:      switchedOn(o.Compress),
		MinifyWhitespace:  switchedOn(o.Whitespace),
		KeepNames:         o.KeepNames,
		Charset:           api.CharsetUTF8,
	}
	if req.Kind == document.CSS {
		t.Loader = api.LoaderCSS
	}
	if o.Target != "" {
		target, ok := esbuildTargets[strings.ToLower(o.Target)]
		if !ok {
			return t, fmt.Errorf("unknown target %q", o.Target)
		}
		t.Target = target
	}
	if o.LegalComments != "" {
		lc, ok := esbuildLegalComments[o.LegalComments]
		if !ok {
			return t, fmt.Errorf("unknown legalComments %q", o.LegalComments)
		}
		t.LegalComments = lc
	}
	if o.DropConsole {
		t.Drop |= api.DropConsole
	}
	if o.DropDebugger {
		t.Drop |= api.DropDebugger
	}
	return t, nil
}

func (e Esbuild) Minify(req *Request) (*Result, error) {
	opts, err := e.transformOptions(req)
	if err != nil {
		return nil, err
	}
	mr := RequestedMap(req.Options)
	if mr != nil {
		opts.Sourcemap = api.SourceMapExternal
	}
	r := api.Transform(string(req.Source), opts)
	if len(r.Errors) > 0 {
		return nil, esbuildError(r.Errors)
	}
	res := &Result{Code: r.Code}
	if mr != nil {
		res.Map = r.Map
		if req.Kind == document.JS && mr.URL != "" {
			res.Code = append(res.Code, sourcemap.JSComment(mr.URL)+"\n"...)
		}
	}
	return res, nil
}

func esbuildError(msgs []api.Message) error {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			lines = append(lines, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column+1, m.Text))
		} else {
			lines = append(lines, m.Text)
		}
	}
	return errors.New(strings.Join(lines, "; "))
}
