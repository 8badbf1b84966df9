// Copyright 2014 Dmitry Chestnykh. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package watch minifies files when they are saved.
package watch

import (
	"context"
	"log"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/dchest/minsave/config"
	"github.com/dchest/minsave/document"
	"github.com/dchest/minsave/fspoll"
	"github.com/dchest/minsave/hashcache"
	"github.com/dchest/minsave/minify"
	"github.com/dchest/minsave/utils"
)

// ExcludeGlobs are globs of paths which are never watched.
var ExcludeGlobs = []string{".git", ".hg", "node_modules", "*.map", "*.gz", "*.br", "*~"}

// Session holds configuration of a workspace and minifies
// files reported as saved.
type Session struct {
	fs           afero.Fs
	root         string
	settingsFile string
	cache        *hashcache.Cache
	log          *log.Logger

	mu       sync.RWMutex // guards cfg and minifier for Config
	cfg      *config.Config
	minifier *minify.Minifier
}

// New loads configuration and returns a new session.
// Cache may be nil.
func New(fs afero.Fs, root, settingsFile string, cache *hashcache.Cache, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.Default()
	}
	s := &Session{
		fs:           fs,
		root:         root,
		settingsFile: settingsFile,
		cache:        cache,
		log:          logger,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Config returns the current configuration.
func (s *Session) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Session) load() error {
	c, errs, err := config.Load(s.fs, s.root, s.settingsFile)
	if err != nil {
		return err
	}
	for _, e := range errs {
		s.log.Printf("! %s", e)
	}
	m, err := minify.NewFromConfig(s.fs, c, s.log)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = c
	s.minifier = m
	s.mu.Unlock()
	return nil
}

// Reload reloads configuration. On error the previous
// configuration is kept.
func (s *Session) Reload() error {
	if err := s.load(); err != nil {
		return err
	}
	s.log.Printf("* Configuration reloaded.")
	return nil
}

func (s *Session) isConfigFile(path string) bool {
	if path == filepath.Clean(s.settingsFile) {
		return true
	}
	for _, v := range s.cfg.OverrideFiles() {
		if path == filepath.Clean(v) {
			return true
		}
	}
	return false
}

func (s *Session) isOutput(path string) bool {
	for _, dir := range s.cfg.OutputDirs() {
		if utils.IsInDir(path, filepath.Clean(dir)) {
			return true
		}
	}
	return false
}

// Handle processes saved files.
func (s *Session) Handle(paths []string) {
	for _, path := range paths {
		if s.isConfigFile(path) {
			if err := s.Reload(); err != nil {
				s.log.Printf("! cannot reload configuration: %s", err)
			}
			break
		}
	}
	for _, path := range paths {
		if s.isConfigFile(path) || s.isOutput(path) {
			continue
		}
		if document.KindFromPath(path) == document.Unknown {
			continue
		}
		doc, err := document.Open(s.fs, path, "")
		if err != nil {
			s.log.Printf("! %s", err)
			continue
		}
		if s.cache != nil && s.cache.Seen(doc.Path, doc.Text) {
			continue
		}
		if _, err := s.minifier.OnSave(s.cfg, doc); err != nil {
			s.log.Printf("! %s", err)
			if s.cache != nil {
				// Try again on the next save.
				s.cache.Forget(doc.Path)
			}
		}
	}
}

// Run handles changes reported by the watcher until the context is done.
func (s *Session) Run(ctx context.Context, w *fspoll.Watcher) error {
	defer func() {
		if s.cache == nil {
			return
		}
		if err := s.cache.Save(); err != nil {
			s.log.Printf("! cannot save cache: %s", err)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-w.Change:
			s.Handle(paths)
		case err := <-w.Error:
			s.log.Printf("! watcher error: %s", err)
		}
	}
}
