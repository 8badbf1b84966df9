// Copyright 2013 Dmitry Chestnykh. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dchest/minsave/config"
	"github.com/dchest/minsave/document"
	"github.com/dchest/minsave/fspoll"
	"github.com/dchest/minsave/hashcache"
	"github.com/dchest/minsave/minify"
	"github.com/dchest/minsave/utils"
	"github.com/dchest/minsave/watch"
)

// Version is set via -ldflags at build time.
var Version = "dev"

const CacheFileName = ".minsave-cache"

var errFailed = errors.New("some files were not minified")

func newApp(fs afero.Fs, stdout io.Writer) *cli.App {
	app := &cli.App{
		Name:    "minsave",
		Usage:   "minify JavaScript and CSS files on demand or on save",
		Version: Version,
		Writer:  stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Usage: "workspace root (default: current directory)"},
			&cli.StringFlag{Name: "config", Usage: "settings file (default: " + config.SettingsFileName + " in workspace root)"},
			&cli.BoolFlag{Name: "nocache", Usage: "don't cache content hashes when watching"},
		},
		Commands: []*cli.Command{
			minifyCmd(fs),
			saveCmd(fs),
			reloadCmd(fs, stdout),
			watchCmd(fs),
		},
	}
	// Errors are reported by main.
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func rootDir(c *cli.Context) (string, error) {
	root := c.String("root")
	if root == "" {
		return os.Getwd()
	}
	return filepath.Abs(root)
}

func settingsFile(c *cli.Context, root string) string {
	if name := c.String("config"); name != "" {
		if abs, err := filepath.Abs(name); err == nil {
			return abs
		}
		return name
	}
	return filepath.Join(root, config.SettingsFileName)
}

// loadConfig loads configuration, reporting errors in override files.
func loadConfig(fs afero.Fs, c *cli.Context) (*config.Config, error) {
	root, err := rootDir(c)
	if err != nil {
		return nil, err
	}
	cfg, errs, err := config.Load(fs, root, settingsFile(c, root))
	if err != nil {
		return nil, err
	}
	for _, e := range errs {
		log.Printf("! %s", e)
	}
	return cfg, nil
}

var langFlag = &cli.StringFlag{Name: "lang", Usage: "language of files: javascript or css (default: from extension)"}

func minifyCmd(fs afero.Fs) *cli.Command {
	return &cli.Command{
		Name:      "minify",
		Usage:     "minify files",
		ArgsUsage: "FILE...",
		Flags:     []cli.Flag{langFlag},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(fs, c)
			if err != nil {
				return err
			}
			m, err := minify.NewFromConfig(fs, cfg, nil)
			if err != nil {
				return err
			}
			if c.NArg() == 0 {
				_, err := m.Minify(cfg, nil)
				return err
			}
			lang := c.String("lang")
			pool := utils.NewPool(func(j interface{}) error {
				doc, err := document.Open(fs, j.(string), lang)
				if err == nil {
					_, err = m.Minify(cfg, doc)
				}
				if err != nil {
					log.Printf("! %s: %s", j, err)
					return errFailed
				}
				return nil
			})
			for _, name := range c.Args().Slice() {
				pool.Add(name)
			}
			return pool.Err()
		},
	}
}

func saveCmd(fs afero.Fs) *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "minify a saved file if minifyOnSave allows it (for editor hooks)",
		ArgsUsage: "FILE",
		Flags:     []cli.Flag{langFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expecting one file")
			}
			cfg, err := loadConfig(fs, c)
			if err != nil {
				return err
			}
			m, err := minify.NewFromConfig(fs, cfg, nil)
			if err != nil {
				return err
			}
			doc, err := document.Open(fs, c.Args().First(), c.String("lang"))
			if err != nil {
				return err
			}
			_, err = m.OnSave(cfg, doc)
			return err
		},
	}
}

func reloadCmd(fs afero.Fs, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "reload",
		Usage: "reload and check configuration",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "print", Usage: "print resolved configuration"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(fs, c)
			if err != nil {
				return err
			}
			log.Printf("* Configuration reloaded.")
			if !c.Bool("print") {
				return nil
			}
			enc := yaml.NewEncoder(stdout)
			enc.SetIndent(2)
			if err := enc.Encode(cfg.Settings); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func watchCmd(fs afero.Fs) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "minify files when they are saved",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "interval", Value: fspoll.DefaultInterval, Usage: "polling interval"},
		},
		Action: func(c *cli.Context) error {
			root, err := rootDir(c)
			if err != nil {
				return err
			}
			var cache *hashcache.Cache
			if !c.Bool("nocache") {
				cache, err = hashcache.Open(fs, filepath.Join(root, CacheFileName))
				if err != nil {
					log.Printf("! cannot read cache: %s", err)
					cache, _ = hashcache.Open(fs, "")
				}
			}
			s, err := watch.New(fs, root, settingsFile(c, root), cache, nil)
			if err != nil {
				return err
			}
			w, err := fspoll.Watch(fs, root, append(watch.ExcludeGlobs, CacheFileName), c.Duration("interval"), 0)
			if err != nil {
				return fmt.Errorf("cannot start watcher: %s", err)
			}
			defer w.Close()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			log.Printf("* Watching for changes. Press Ctrl+C to quit.")
			return s.Run(ctx, w)
		},
	}
}

func main() {
	log.SetFlags(0)
	app := newApp(afero.NewOsFs(), os.Stdout)
	if err := app.Run(os.Args); err != nil {
		if err != errFailed {
			log.Printf("! %s", err)
		}
		os.Exit(1)
	}
}
