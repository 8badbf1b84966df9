package watch

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/dchest/minsave/config"
	"github.com/dchest/minsave/fspoll"
	"github.com/dchest/minsave/hashcache"
)

const appJS = "function greet(name) {\n  return 'Hello, ' + name;\n}\n"

func newSession(t *testing.T, settings string) (afero.Fs, *Session, *bytes.Buffer) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/w/src", 0755))
	require.NoError(t, fs.MkdirAll("/w/dist", 0755))
	require.NoError(t, afero.WriteFile(fs, "/w/src/app.js", []byte(appJS), 0644))
	require.NoError(t, afero.WriteFile(fs, "/w/"+config.SettingsFileName, []byte(settings), 0644))
	cache, err := hashcache.Open(fs, "")
	require.NoError(t, err)
	var buf bytes.Buffer
	s, err := New(fs, "/w", "/w/"+config.SettingsFileName, cache, log.New(&buf, "", 0))
	require.NoError(t, err)
	return fs, s, &buf
}

func TestHandleMinifiesOnSave(t *testing.T) {
	fs, s, _ := newSession(t, "minifyOnSave: yes\n")
	s.Handle([]string{"/w/src/app.js"})
	ok, _ := afero.Exists(fs, "/w/src/app.min.js")
	require.True(t, ok)

	// The same content is not minified again.
	require.NoError(t, fs.Remove("/w/src/app.min.js"))
	s.Handle([]string{"/w/src/app.js"})
	ok, _ = afero.Exists(fs, "/w/src/app.min.js")
	require.False(t, ok)

	// Changed content is.
	require.NoError(t, afero.WriteFile(fs, "/w/src/app.js", []byte(appJS+"greet('x');\n"), 0644))
	s.Handle([]string{"/w/src/app.js"})
	ok, _ = afero.Exists(fs, "/w/src/app.min.js")
	require.True(t, ok)
}

func TestHandleExists(t *testing.T) {
	fs, s, _ := newSession(t, "minifyOnSave: exists\n")
	s.Handle([]string{"/w/src/app.js"})
	ok, _ := afero.Exists(fs, "/w/src/app.min.js")
	require.False(t, ok, "minified file must not be created when it doesn't exist")
}

func TestHandleSkipsOutputDir(t *testing.T) {
	fs, s, _ := newSession(t, "minifyOnSave: yes\njsMinPath: dist\njsPostfix: \"\"\n")
	require.NoError(t, afero.WriteFile(fs, "/w/dist/app.js", []byte(appJS), 0644))
	s.Handle([]string{"/w/dist/app.js", "/w/src/app.js"})
	b, err := afero.ReadFile(fs, "/w/dist/app.js")
	require.NoError(t, err)
	require.Less(t, len(b), len(appJS), "source must be minified into output dir")
	ok, _ := afero.Exists(fs, "/w/dist/app.min.js")
	require.False(t, ok)
}

func TestHandleReloadsConfig(t *testing.T) {
	fs, s, buf := newSession(t, "minifyOnSave: yes\n")
	require.Equal(t, config.DefaultPostfix, s.Config().JSPostfix)

	require.NoError(t, afero.WriteFile(fs, "/w/"+config.SettingsFileName, []byte("minifyOnSave: yes\njsPostfix: pack\n"), 0644))
	s.Handle([]string{"/w/" + config.SettingsFileName, "/w/src/app.js"})
	require.Contains(t, buf.String(), "* Configuration reloaded.")
	require.Equal(t, "pack", s.Config().JSPostfix)
	ok, _ := afero.Exists(fs, "/w/src/app.pack.js")
	require.True(t, ok)

	// Broken settings keep the previous configuration.
	require.NoError(t, afero.WriteFile(fs, "/w/"+config.SettingsFileName, []byte("minifyOnSave: [\n"), 0644))
	s.Handle([]string{"/w/" + config.SettingsFileName})
	require.Contains(t, buf.String(), "! cannot reload configuration")
	require.Equal(t, "pack", s.Config().JSPostfix)
}

func TestHandleReportsErrors(t *testing.T) {
	fs, s, buf := newSession(t, "minifyOnSave: yes\n")
	require.NoError(t, afero.WriteFile(fs, "/w/src/bad.js", []byte("function ("), 0644))
	s.Handle([]string{"/w/src/bad.js", "/w/src/missing.js", "/w/README"})
	out := buf.String()
	require.Contains(t, out, "! minify /w/src/bad.js")
	require.Contains(t, out, "missing.js")
	require.False(t, strings.Contains(out, "README"))
}

func TestRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	var buf bytes.Buffer
	settings := "/w/" + config.SettingsFileName
	require.NoError(t, afero.WriteFile(fs, settings, []byte("minifyOnSave: yes\n"), 0644))
	cache, err := hashcache.Open(fs, "/w/.cache")
	require.NoError(t, err)
	s, err := New(fs, "/w", settings, cache, log.New(&buf, "", 0))
	require.NoError(t, err)
	w, err := fspoll.Watch(fs, "/w", append(ExcludeGlobs, ".cache"), 10*time.Millisecond, -1)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, w) }()

	require.NoError(t, afero.WriteFile(fs, "/w/app.js", []byte(appJS), 0644))
	require.Eventually(t, func() bool {
		ok, _ := afero.Exists(fs, "/w/app.min.js")
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	// A changed settings file is picked up by the running session.
	require.NoError(t, afero.WriteFile(fs, settings, []byte("minifyOnSave: yes\njsPostfix: pack\n"), 0644))
	require.Eventually(t, func() bool {
		return s.Config().JSPostfix == "pack"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	ok, err := afero.Exists(fs, "/w/.cache")
	require.NoError(t, err)
	require.True(t, ok, "cache must be saved on exit")
}
