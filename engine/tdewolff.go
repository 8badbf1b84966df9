package engine

// `tdewolff` minifies JavaScript and CSS with github.com/tdewolff/minify.

import (
	"github.com/tdewolff/minify/v2"
	tdcss "github.com/tdewolff/minify/v2/css"
	tdjs "github.com/tdewolff/minify/v2/js"

	"github.com/dchest/minsave/document"
)

func init() {
	Register(Tdewolff(0))
}

type Tdewolff int

type tdewolffOptions struct {
	Precision    int  `json:"precision"`
	KeepVarNames bool `json:"keepVarNames"`
}

const (
	mimeJS  = "application/javascript"
	mimeCSS = "text/css"
)

func (e Tdewolff) Name() string { return "tdewolff" }

func (e Tdewolff) Supports(kind document.Kind) bool {
	return kind == document.JS || kind == document.CSS
}

func (e Tdewolff) Minify(req *Request) (*Result, error) {
	var o tdewolffOptions
	if err := decodeOptions(req.Options, &o); err != nil {
		return nil, err
	}
	m := minify.New()
	m.Add(mimeJS, &tdjs.Minifier{Precision: o.Precision, KeepVarNames: o.KeepVarNames})
	m.Add(mimeCSS, &tdcss.Minifier{Precision: o.Precision})
	mime := mimeJS
	if req.Kind == document.CSS {
		mime = mimeCSS
	}
	out, err := m.Bytes(mime, req.Source)
	if err != nil {
		return nil, err
	}
	return &Result{Code: out}, nil
}
