// Package sourcemap adjusts source maps produced by minifiers.
package sourcemap

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Source returns the value for the "sources" entry: the base name of
// filename joined to prefix with a slash. Prefix may be a URL.
func Source(prefix, filename string) string {
	base := filepath.Base(filename)
	if prefix == "" {
		return base
	}
	return strings.TrimRight(filepath.ToSlash(prefix), "/") + "/" + base
}

// Rewrite sets "file" and "sources" of the JSON source map, keeping
// other fields as they are.
func Rewrite(data []byte, file, source string) ([]byte, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("bad source map: %s", err)
	}
	var err error
	if m["file"], err = json.Marshal(file); err != nil {
		return nil, err
	}
	if m["sources"], err = json.Marshal([]string{source}); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// Sources returns the "sources" entry of the source map.
func Sources(data []byte) ([]string, error) {
	var m struct {
		Sources []string `json:"sources"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m.Sources, nil
}

// CSSComment returns a CSS comment referencing the source map.
func CSSComment(url string) string {
	return "/*# sourceMappingURL=" + url + " */"
}

// JSComment returns a JavaScript comment referencing the source map.
func JSComment(url string) string {
	return "//# sourceMappingURL=" + url
}
