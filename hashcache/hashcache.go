// Package hashcache tells whether the given content at the path was already seen by it.
package hashcache

import (
	"crypto/md5"
	"encoding/gob"
	"hash"
	"os"
	"sync"

	"github.com/spf13/afero"
)

const hashSize = md5.Size

type Cache struct {
	sync.Mutex
	fs       afero.Fs
	filename string
	m        map[string][hashSize]byte
	h        hash.Hash
}

// Open loads the cache from file. Missing file results in an empty cache.
// If filename is empty, the cache is kept only in memory.
func Open(fs afero.Fs, filename string) (c *Cache, err error) {
	c = &Cache{fs: fs, filename: filename, m: make(map[string][hashSize]byte), h: md5.New()}
	if filename == "" {
		return c, nil
	}
	f, err := fs.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(&c.m); err != nil {
		return nil, err
	}
	return c, nil
}

// contentHash returns hash of content. Cache must be locked.
func (c *Cache) contentHash(content []byte) (sum [hashSize]byte) {
	c.h.Reset()
	c.h.Write(content)
	c.h.Sum(sum[:0])
	return
}

// Seen sets content hash for the given path to a new value.
// It returns true if the content was already cached and had the same hash.
func (c *Cache) Seen(path string, content []byte) bool {
	c.Lock()
	defer c.Unlock()
	origHash, ok := c.m[path]
	newHash := c.contentHash(content)
	if !ok || origHash != newHash {
		c.m[path] = newHash
		return false
	}
	return true
}

// Forget removes path from the cache, so that the next Seen
// call for it returns false.
func (c *Cache) Forget(path string) {
	c.Lock()
	defer c.Unlock()
	delete(c.m, path)
}

// Save writes the cache to the file it was opened from.
func (c *Cache) Save() (err error) {
	c.Lock()
	defer c.Unlock()
	if c.filename == "" {
		return nil
	}
	f, err := c.fs.Create(c.filename)
	if err != nil {
		return
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			// Delete file.
			c.fs.Remove(c.filename)
		}
	}()
	return gob.NewEncoder(f).Encode(c.m)
}
