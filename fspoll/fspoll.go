// Copyright 2014 Dmitry Chestnykh. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fspoll implements a primitive polling-based filesystem watcher.
package fspoll

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
)

// fileState is a snapshot of file attributes compared between polls.
type fileState struct {
	dir     bool
	mode    os.FileMode
	modTime time.Time
	size    int64
}

func stateOf(fi os.FileInfo) fileState {
	return fileState{dir: fi.IsDir(), mode: fi.Mode(), modTime: fi.ModTime(), size: fi.Size()}
}

type Watcher struct {
	fs            afero.Fs
	dir           string
	excludeGlobs  []string
	state         map[string]fileState
	interval      time.Duration
	sleepInterval time.Duration
	closed        chan bool

	// event channels
	Change chan []string // new or modified files
	Error  chan error
}

const (
	DefaultInterval = 1 * time.Second
	SleepAfter      = 5 * time.Minute
)

// Watch polls the given directory and subdirectories and files inside it,
// excluding the given globs, for changes with the given interval.
//
// When there was no change for the given interval in 5 minutes, interval
// changes to sleepInterval (interval * 5 by default).
// It's back to normal interval if a change is detected.
// If sleepInterval is negative, don't sleep.
//
// It returns a Watcher or an error.
func Watch(fs afero.Fs, dir string, excludeGlobs []string, interval, sleepInterval time.Duration) (w *Watcher, err error) {
	if interval == 0 {
		interval = DefaultInterval
	}
	if sleepInterval < 0 {
		sleepInterval = interval
	} else if sleepInterval == 0 {
		sleepInterval = DefaultInterval * 5
	}
	w = &Watcher{
		fs:            fs,
		dir:           dir,
		excludeGlobs:  excludeGlobs,
		interval:      interval,
		sleepInterval: sleepInterval,
		Change:        make(chan []string),
		Error:         make(chan error),
		closed:        make(chan bool),
	}
	// Get initial state
	w.state, err = w.getState()
	if err != nil {
		return nil, err
	}
	// Start watching goroutine
	go w.start()
	return w, nil
}

func (w *Watcher) start() {
	lastChangeTime := time.Now()
	currentInterval := w.interval
	for {
		changed, err := w.check()
		switch {
		case err != nil:
			select {
			case w.Error <- err:
			case <-w.closed:
				return
			}
		case len(changed) > 0:
			lastChangeTime = time.Now()
			currentInterval = w.interval
			select {
			case w.Change <- changed:
			case <-w.closed:
				return
			}
		case time.Since(lastChangeTime) > SleepAfter:
			currentInterval = w.sleepInterval
		}
		select {
		case <-time.After(currentInterval):
			continue
		case <-w.closed:
			return
		}
	}
}

func (w *Watcher) getState() (map[string]fileState, error) {
	ns := make(map[string]fileState)
	err := afero.Walk(w.fs, w.dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		for _, glob := range w.excludeGlobs {
			matched, err := filepath.Match(glob, path)
			if err != nil {
				return err
			}
			if !matched {
				m, err := filepath.Match(glob, fi.Name())
				if err != nil {
					return err
				}
				matched = m
			}
			if matched {
				// Skip excluded path
				if fi.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		ns[path] = stateOf(fi)
		return nil
	})
	return ns, err
}

// check returns new and modified files since the last check.
func (w *Watcher) check() (changed []string, err error) {
	ns, err := w.getState()
	if err != nil {
		return nil, err
	}
	for path, nfi := range ns {
		if nfi.dir {
			continue
		}
		ofi, ok := w.state[path]
		switch {
		case !ok:
			// New file.
			changed = append(changed, path)
		case ofi.mode != nfi.mode,
			!ofi.modTime.Equal(nfi.modTime),
			ofi.size != nfi.size:
			changed = append(changed, path)
		}
	}
	// Set new state as current.
	w.state = ns
	sort.Strings(changed)
	return changed, nil
}

// Close stops the watcher.
func (w *Watcher) Close() {
	close(w.closed)
}
