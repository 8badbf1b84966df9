package hashcache

import (
	"testing"

	"github.com/spf13/afero"
)

func TestSeen(t *testing.T) {
	path0 := "some/path"
	path1 := "another/path"
	content0 := []byte("some content to hash")
	content1 := []byte("some other content")

	fs := afero.NewMemMapFs()
	filename := "/w/.cache"
	c, err := Open(fs, filename)
	if err != nil {
		t.Fatalf("%s", err)
	}
	res := c.Seen(path0, content0)
	if res {
		t.Errorf("0/0 update returned true, expected false")
	}
	res = c.Seen(path0, content0)
	if !res {
		t.Errorf("0/0 update returned false, expected true")
	}
	res = c.Seen(path1, content0)
	if res {
		t.Errorf("1/0 update returned true, expected false")
	}
	res = c.Seen(path1, content0)
	if !res {
		t.Errorf("1/0 update returned false, expected true")
	}
	res = c.Seen(path0, content1)
	if res {
		t.Errorf("0/1 update returned true, expected false")
	}

	// Write to file.
	if err := c.Save(); err != nil {
		t.Errorf("%s", err)
	}

	// Read and check.
	nc, err := Open(fs, filename)
	if err != nil {
		t.Fatalf("%s", err)
	}
	res = nc.Seen(path1, content0)
	if !res {
		t.Errorf("1/0 update returned false, expected true")
	}
	res = nc.Seen(path0, content1)
	if !res {
		t.Errorf("0/1 update returned false, expected true")
	}
	res = nc.Seen("something", []byte("completely different"))
	if res {
		t.Errorf("update returned true, expected false")
	}
	nc.Forget(path1)
	if nc.Seen(path1, content0) {
		t.Errorf("forgotten path returned true, expected false")
	}
}

func TestMemoryOnly(t *testing.T) {
	c, err := Open(nil, "")
	if err != nil {
		t.Fatalf("%s", err)
	}
	c.Seen("a", []byte("b"))
	if err := c.Save(); err != nil {
		t.Errorf("%s", err)
	}
}

func TestBadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/cache", []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(fs, "/cache"); err == nil {
		t.Errorf("expected error for corrupted cache")
	}
}

func TestSaveFailure(t *testing.T) {
	c, err := Open(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/cache")
	if err != nil {
		t.Fatalf("%s", err)
	}
	c.Seen("a", []byte("b"))
	if err := c.Save(); err == nil {
		t.Errorf("expected error saving to read-only filesystem")
	}
}

func BenchmarkSeen(b *testing.B) {
	c, _ := Open(nil, "")
	b.ResetTimer()
	path := "path"
	content := make([]byte, 128)
	for i := 0; i < b.N; i++ {
		c.Seen(path, content)
	}
}
