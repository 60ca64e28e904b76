package minicjs

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"reflect"
	"testing"

	"github.com/go-errors/errors"
	"github.com/spf13/afero"
)

func gzipped(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func zipImage(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for name, content := range files {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func memStore(t *testing.T, files map[string]string) *Store {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		if err := afero.WriteFile(fs, "/"+name, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return NewStore(fs)
}

func TestStoreExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/lib/a.js", []byte("a"), 0644)
	afero.WriteFile(fs, "/lib/c.js.gz", gzipped(t, "c"), 0644)
	afero.WriteFile(fs, "/data/d.json.gz", gzipped(t, "{}"), 0644)
	store := NewStore(fs)

	tests := map[string]bool{
		"lib/a.js":       true,
		"/lib/a.js":      true,
		"lib/c.js":       true,
		"lib/c.js.gz":    true,
		"data/d.json":    false,
		"lib":            false,
		"lib/missing.js": false,
		"":               false,
	}
	for path, want := range tests {
		if got := store.Exists(path); got != want {
			t.Errorf("Exists(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestStoreReadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/lib/a.js", []byte("plain"), 0644)
	afero.WriteFile(fs, "/lib/c.js.gz", gzipped(t, "compressed"), 0644)
	store := NewStore(fs)

	if content, err := store.ReadFile("lib/a.js"); err != nil || content != "plain" {
		t.Errorf("ReadFile(lib/a.js) = %q, %v", content, err)
	}
	if content, err := store.ReadFile("lib/c.js"); err != nil || content != "compressed" {
		t.Errorf("ReadFile(lib/c.js) = %q, %v", content, err)
	}

	_, err := store.ReadFile("lib/missing.js")
	if err == nil {
		t.Fatal("ReadFile of a missing file succeeded")
	}
	var pathErr *os.PathError
	if !errors.As(err, &pathErr) || !os.IsNotExist(pathErr) {
		t.Errorf("expected a not-exist path error, got %v", err)
	}
}

func TestStoreIsReadOnly(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs)
	if err := afero.WriteFile(store.fs.base, "/x.js", []byte("x"), 0644); err == nil {
		t.Error("store accepted a write")
	}
}

func TestStoreNames(t *testing.T) {
	store := memStore(t, map[string]string{
		"manifest.json": "{}",
		"lib/b.js":      "",
		"lib/a.js":      "",
	})
	names, err := store.Names()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"lib/a.js", "lib/b.js", "manifest.json"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Names() = %v, want %v", names, want)
	}
}

func TestZipStore(t *testing.T) {
	image := zipImage(t, map[string]string{
		"manifest.json": `{"name": "zipped"}`,
		"lib/a.js":      "module.exports = 1;",
	})

	store, err := NewZipStore(image)
	if err != nil {
		t.Fatal(err)
	}
	if !store.Exists("lib/a.js") {
		t.Error("zip store misses lib/a.js")
	}
	if content, err := store.ReadFile("manifest.json"); err != nil || content != `{"name": "zipped"}` {
		t.Errorf("ReadFile(manifest.json) = %q, %v", content, err)
	}

	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/store.pak", image, 0644)
	opened, err := OpenZipStore(fs, "/store.pak")
	if err != nil {
		t.Fatal(err)
	}
	if !opened.Exists("/lib/a.js") {
		t.Error("opened zip store misses lib/a.js")
	}

	if _, err := NewZipStore([]byte("not a zip")); err == nil {
		t.Error("NewZipStore accepted a broken image")
	}
	if _, err := OpenZipStore(fs, "/missing.pak"); err == nil {
		t.Error("OpenZipStore accepted a missing image")
	}
}
