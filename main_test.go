package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/dchest/minsave/config"
	"github.com/dchest/minsave/minify"
)

const testJS = "function greet(name) {\n  return 'Hello, ' + name;\n}\n"

func setupWorkspace(t *testing.T, settings string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte(testJS), 0644); err != nil {
		t.Fatal(err)
	}
	if settings != "" {
		if err := os.WriteFile(filepath.Join(dir, config.SettingsFileName), []byte(settings), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(afero.NewOsFs(), &out)
	err := app.Run(append([]string{"minsave"}, args...))
	return out.String(), err
}

func TestMinifyCommand(t *testing.T) {
	dir := setupWorkspace(t, "")
	if _, err := run(t, "--root", dir, "minify", filepath.Join(dir, "app.js")); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "app.min.js"))
	if err != nil {
		t.Fatal(err)
	}
	if len(b) == 0 || len(b) >= len(testJS) {
		t.Errorf("unexpected minified content %q", b)
	}
}

func TestMinifyCommandErrors(t *testing.T) {
	dir := setupWorkspace(t, "")
	if _, err := run(t, "--root", dir, "minify"); !errors.Is(err, minify.ErrNotSaved) {
		t.Errorf("expected %v, got %v", minify.ErrNotSaved, err)
	}
	os.WriteFile(filepath.Join(dir, "app.min.js"), []byte("x"), 0644)
	if _, err := run(t, "--root", dir, "minify", filepath.Join(dir, "app.min.js")); err != errFailed {
		t.Errorf("expected %v, got %v", errFailed, err)
	}
	b, _ := os.ReadFile(filepath.Join(dir, "app.min.js"))
	if string(b) != "x" {
		t.Errorf("minified file must not be rewritten")
	}
}

func TestMalformedOverride(t *testing.T) {
	dir := setupWorkspace(t, "uglifyConfigFile: .uglifyrc\n")
	os.WriteFile(filepath.Join(dir, ".uglifyrc"), []byte("{broken"), 0644)
	if _, err := run(t, "--root", dir, "minify", filepath.Join(dir, "app.js")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "app.min.js")); err != nil {
		t.Errorf("expected minified file: %s", err)
	}
}

func TestSaveCommandExists(t *testing.T) {
	dir := setupWorkspace(t, "minifyOnSave: exists\n")
	if _, err := run(t, "--root", dir, "save", filepath.Join(dir, "app.js")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "app.min.js")); !os.IsNotExist(err) {
		t.Errorf("expected no minified file, got %v", err)
	}
	os.WriteFile(filepath.Join(dir, "app.min.js"), nil, 0644)
	if _, err := run(t, "--root", dir, "save", filepath.Join(dir, "app.js")); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(filepath.Join(dir, "app.min.js"))
	if len(b) == 0 {
		t.Errorf("expected existing minified file to be updated")
	}
}

func TestReloadPrint(t *testing.T) {
	dir := setupWorkspace(t, "minifyOnSave: exists\ncssPostfix: small\n")
	out, err := run(t, "--root", dir, "reload", "--print")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"minifyOnSave: exists", "cssPostfix: small", "jsPostfix: min"} {
		if !strings.Contains(out, s) {
			t.Errorf("expected %q in output:\n%s", s, out)
		}
	}
	if _, err := run(t, "--config", filepath.Join(dir, "missing.yml"), "--root", dir, "reload"); err != nil {
		t.Errorf("missing settings file must result in defaults, got %v", err)
	}
}
