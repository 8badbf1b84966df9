// Package outpath derives destination paths of minified files.
package outpath

import (
	"path/filepath"

	"github.com/dchest/minsave/config"
	"github.com/dchest/minsave/document"
	"github.com/dchest/minsave/utils"
)

// Name returns the filename of the minified file: base name without
// the extension, postfix (if not empty), and the original extension.
func Name(filename, postfix string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	name := utils.StripFileExt(base)
	if postfix != "" {
		name += "." + postfix
	}
	return name + ext
}

// Dir returns the directory for the minified file. The configured
// output directory under the workspace root takes precedence over
// the source file directory.
func Dir(filename, root, minPath string) string {
	if minPath != "" {
		return filepath.Join(root, minPath)
	}
	return filepath.Dir(filename)
}

// Derive returns the path of the minified file for the document.
// It returns an empty string for unsupported document kinds.
func Derive(doc *document.Document, c *config.Config) string {
	if doc.Kind != document.JS && doc.Kind != document.CSS {
		return ""
	}
	kc := c.For(doc.Kind)
	return filepath.Join(Dir(doc.Path, c.Root, kc.MinPath), Name(doc.Path, kc.Postfix))
}

// MapPath returns the path of the source map for the minified file.
func MapPath(outfile string) string {
	return outfile + ".map"
}
