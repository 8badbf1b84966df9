// Copyright 2013 Dmitry Chestnykh. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package utils contains utility functions.
package utils

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// UnmarshallYAMLFile reads YAML file and unmarshalls it into data.
func UnmarshallYAMLFile(fs afero.Fs, filename string, data interface{}) error {
	b, err := afero.ReadFile(fs, filename)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, data)
}

// DirExist returns true if the given directory exists.
func DirExist(fs afero.Fs, path string) bool {
	fi, err := fs.Stat(path)
	if err != nil {
		return false
	}
	return fi.IsDir()
}

// FileExist returns true if the given regular file exists.
func FileExist(fs afero.Fs, path string) bool {
	fi, err := fs.Stat(path)
	if err != nil {
		return false
	}
	return fi.Mode().IsRegular()
}

// StripFileExt returns filename without the final extension.
func StripFileExt(filename string) string {
	return filename[:len(filename)-len(filepath.Ext(filename))]
}

// ReplaceFileExt replaces file extension with the given string.
// Extension must start with dot.
func ReplaceFileExt(filename string, ext string) string {
	return StripFileExt(filename) + ext
}

// IsInDir returns true if path is dir or is inside dir.
// Both paths must be absolute and clean.
func IsInDir(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}

// Pool is a worker pool for parallel job processing.
type Pool struct {
	sync.Mutex
	wg   sync.WaitGroup
	jobs chan interface{}
	err  error
}

// NewPool creates a new pool which calls fn for each
// added item and stores the first returned error.
func NewPool(fn func(interface{}) error) *Pool {
	parallelism := runtime.NumCPU()
	p := &Pool{
		jobs: make(chan interface{}, parallelism),
	}
	// Launch workers.
	for i := 0; i < parallelism; i++ {
		go func() {
			for j := range p.jobs {
				err := fn(j)
				if err != nil {
					p.Lock()
					if p.err == nil {
						p.err = err
					}
					p.Unlock()
				}
				p.wg.Done()
			}
		}()
	}
	return p
}

// Add adds a new job to pool. Function passed to
// NewPool will be called for each job in a worker goroutine.
//
// After finishing adding items, Err must be called on the pool
// to wait for unfinished jobs to complete and get the first error.
func (p *Pool) Add(job interface{}) {
	p.wg.Add(1)
	p.jobs <- job
}

// Err waits for all jobs, stops workers and returns the first error.
func (p *Pool) Err() error {
	p.wg.Wait()
	close(p.jobs)
	return p.err
}
