// Package filewriter writes generated files, optionally accompanied
// by their compressed versions.
package filewriter

import (
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"
	"github.com/spf13/afero"
)

// .minsave.yml -> compress:
type CompressConfig struct {
	Methods    []string `yaml:"methods"`
	Extensions []string `yaml:"extensions"`
}

type Compressor struct {
	Ext string
	New func(w io.Writer) io.WriteCloser
}

var gzipCompressor = &Compressor{
	Ext: "gz",
	New: func(w io.Writer) io.WriteCloser {
		z, err := gzip.NewWriterLevel(w, gzipLevel)
		if err != nil {
			panic(err.Error()) // shouldn't happen
		}
		return z
	},
}

var brotliCompressor = &Compressor{
	Ext: "br",
	New: func(w io.Writer) io.WriteCloser {
		return brotli.NewWriterLevel(w, brotliLevel)
	},
}

const (
	gzipLevel   = 9
	brotliLevel = 11
)

// Sizes are lengths of content before and after minification.
type Sizes struct {
	Before int
	After  int
}

// Reduction returns size reduction in percents.
// It returns false if the original size is unknown.
func (s *Sizes) Reduction() (percent float64, ok bool) {
	if s == nil || s.Before <= 0 {
		return 0, false
	}
	return 100 - (float64(s.After) / float64(s.Before) * 100), true
}

type FileWriter struct {
	fs                   afero.Fs
	log                  *log.Logger
	compressedExtensions map[string]struct{}
	compressors          []*Compressor
}

func New(fs afero.Fs, logger *log.Logger, c *CompressConfig) (*FileWriter, error) {
	extensions := make(map[string]struct{})
	compressors := make([]*Compressor, 0)
	if c != nil {
		for _, v := range c.Extensions {
			extensions["."+v] = struct{}{}
		}
		for _, v := range c.Methods {
			switch v {
			case "gzip":
				compressors = append(compressors, gzipCompressor)
			case "br":
				compressors = append(compressors, brotliCompressor)
			default:
				return nil, fmt.Errorf("Unknown compression method: %q", v)
			}
		}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FileWriter{
		fs:                   fs,
		log:                  logger,
		compressedExtensions: extensions,
		compressors:          compressors,
	}, nil
}

func (f *FileWriter) numberOfCompressors(ext string) int {
	if _, ok := f.compressedExtensions[ext]; ok {
		return len(f.compressors)
	}
	return 0
}

// Write overwrites the file with data. The directory must exist.
// If sizes are given, size reduction is reported to the log.
func (f *FileWriter) Write(filename string, data []byte, sizes *Sizes) error {
	nwriters := 1 + f.numberOfCompressors(filepath.Ext(filename))
	done := make(chan error, nwriters)
	go func() {
		done <- afero.WriteFile(f.fs, filename, data, 0644)
	}()
	if nwriters > 1 {
		for _, c := range f.compressors {
			c := c
			go func() {
				done <- f.writeCompressed(c, filename+"."+c.Ext, data)
			}()
		}
	}
	var lastErr error
	for i := 0; i < nwriters; i++ {
		err := <-done
		if err != nil && lastErr == nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return lastErr
	}
	if p, ok := sizes.Reduction(); ok {
		f.log.Printf("W %s (%.2f%% smaller)", filename, p)
	} else {
		f.log.Printf("W %s", filename)
	}
	return nil
}

func (f *FileWriter) writeCompressed(c *Compressor, outfile string, data []byte) (err error) {
	out, err := f.fs.OpenFile(outfile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			f.fs.Remove(outfile)
		}
	}()
	z := c.New(out)
	if _, err = z.Write(data); err != nil {
		z.Close()
		return err
	}
	return z.Close()
}
