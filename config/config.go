// Copyright 2013 Dmitry Chestnykh. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config implements loading and merging of minifier configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/dchest/minsave/document"
	"github.com/dchest/minsave/filewriter"
	"github.com/dchest/minsave/utils"
)

const (
	SettingsFileName = ".minsave.yml"

	DefaultPostfix = "min"
)

// Options is an option blob passed to a minifier engine as is.
type Options map[string]interface{}

// Clone returns a shallow copy of options.
func (o Options) Clone() Options {
	c := make(Options, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}

// Merge returns a copy of o with keys from over replacing its keys.
func (o Options) Merge(over Options) Options {
	c := o.Clone()
	for k, v := range over {
		c[k] = v
	}
	return c
}

// Settings are user settings loadable from YAML.
type Settings struct {
	MinifyOnSave OnSave `yaml:"minifyOnSave"`
	// HideButton is accepted for compatibility with editor settings.
	HideButton bool `yaml:"hideButton,omitempty"`

	UglifyConfigFile   string `yaml:"uglifyConfigFile,omitempty"`
	CleancssConfigFile string `yaml:"cleancssConfigFile,omitempty"`

	GenJSMap     bool   `yaml:"genJSmap"`
	GenCSSMap    bool   `yaml:"genCSSmap"`
	JSMapSource  string `yaml:"jsMapSource,omitempty"`
	CSSMapSource string `yaml:"cssMapSource,omitempty"`

	JSMinPath  string `yaml:"jsMinPath,omitempty"`
	CSSMinPath string `yaml:"cssMinPath,omitempty"`
	JSPostfix  string `yaml:"jsPostfix"`
	CSSPostfix string `yaml:"cssPostfix"`

	JS  Options `yaml:"js,omitempty"`
	CSS Options `yaml:"css,omitempty"`

	Compress *filewriter.CompressConfig `yaml:"compress,omitempty"`
}

// Defaults returns default settings.
func Defaults() Settings {
	return Settings{
		MinifyOnSave: Never,
		JSPostfix:    DefaultPostfix,
		CSSPostfix:   DefaultPostfix,
		JS:           Options{},
		CSS:          Options{},
	}
}

// LoadSettings reads settings from the YAML file over defaults.
// Missing file is not an error, it results in default settings.
func LoadSettings(fs afero.Fs, filename string) (Settings, error) {
	s := Defaults()
	if err := utils.UnmarshallYAMLFile(fs, filename, &s); err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return s, fmt.Errorf("%s: %s", filename, err)
	}
	if s.JS == nil {
		s.JS = Options{}
	}
	if s.CSS == nil {
		s.CSS = Options{}
	}
	return s, nil
}

// Config is a resolved configuration for a workspace.
type Config struct {
	Settings
	Root string
}

// Resolve merges override files found relative to the workspace root
// into the option blobs of settings and returns the configuration.
//
// Failure to read or parse an override file doesn't make the
// configuration invalid: the override is skipped and the error
// is returned in errs.
func Resolve(fs afero.Fs, root string, s Settings) (c *Config, errs []error) {
	c = &Config{Settings: s, Root: root}
	c.JS = s.JS.Clone()
	c.CSS = s.CSS.Clone()
	if s.UglifyConfigFile != "" {
		o, err := readOverride(fs, c.OverridePath(s.UglifyConfigFile))
		if err != nil {
			errs = append(errs, err)
		} else {
			c.JS = c.JS.Merge(o)
		}
	}
	if s.CleancssConfigFile != "" {
		o, err := readOverride(fs, c.OverridePath(s.CleancssConfigFile))
		if err != nil {
			errs = append(errs, err)
		} else {
			c.CSS = c.CSS.Merge(o)
		}
	}
	return c, errs
}

// Load loads settings from the file and resolves them for the workspace root.
// It returns an error only if the settings file itself can't be loaded.
func Load(fs afero.Fs, root, filename string) (c *Config, errs []error, err error) {
	s, err := LoadSettings(fs, filename)
	if err != nil {
		return nil, nil, err
	}
	c, errs = Resolve(fs, root, s)
	return c, errs, nil
}

// OverridePath returns the absolute path of a workspace-relative file.
func (c *Config) OverridePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Root, name)
}

// OverrideFiles returns absolute paths of configured override files.
func (c *Config) OverrideFiles() []string {
	var files []string
	for _, v := range []string{c.UglifyConfigFile, c.CleancssConfigFile} {
		if v != "" {
			files = append(files, c.OverridePath(v))
		}
	}
	return files
}

func readOverride(fs afero.Fs, filename string) (Options, error) {
	b, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file: %s", err)
	}
	var o Options
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %s", filename, err)
	}
	return o, nil
}

// KindConfig is a configuration for a single document kind.
type KindConfig struct {
	Postfix   string
	MinPath   string
	GenMap    bool
	MapSource string
	Options   Options
}

// For returns configuration for the document kind.
// The returned Options must not be modified.
func (c *Config) For(kind document.Kind) KindConfig {
	switch kind {
	case document.JS:
		return KindConfig{
			Postfix:   c.JSPostfix,
			MinPath:   c.JSMinPath,
			GenMap:    c.GenJSMap,
			MapSource: c.JSMapSource,
			Options:   c.JS,
		}
	case document.CSS:
		return KindConfig{
			Postfix:   c.CSSPostfix,
			MinPath:   c.CSSMinPath,
			GenMap:    c.GenCSSMap,
			MapSource: c.CSSMapSource,
			Options:   c.CSS,
		}
	default:
		return KindConfig{}
	}
}

// OutputDirs returns absolute paths of configured output directories.
func (c *Config) OutputDirs() []string {
	var dirs []string
	for _, v := range []string{c.JSMinPath, c.CSSMinPath} {
		if v != "" {
			dirs = append(dirs, filepath.Join(c.Root, v))
		}
	}
	return dirs
}
