package minicjs

import (
	"archive/zip"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/go-errors/errors"
	"github.com/spf13/afero"
	"github.com/spf13/afero/zipfs"
)

type compression int

const (
	compressionNone compression = iota
	compressionGzip
	compressionBzip2
)

// Store holds the internal modules of an embedding. Only files found in the
// store can be loaded as modules; it is the sandbox boundary of the loader.
//
// Store paths are slash separated and relative to the store root, a leading
// slash is optional. Host directories can be mounted into the store, which
// makes their files loadable as internal modules.
type Store struct {
	fs *compositeFs
}

// NewStore wraps filesystem read-only.
func NewStore(filesystem afero.Fs) *Store {
	return &Store{
		fs: newCompositeFs(afero.NewReadOnlyFs(filesystem)),
	}
}

// NewZipStore serves the internal modules packed in a zip image.
func NewZipStore(image []byte) (*Store, error) {
	reader, err := zip.NewReader(bytes.NewReader(image), int64(len(image)))
	if err != nil {
		return nil, errors.New(err)
	}
	return &Store{
		fs: newCompositeFs(zipfs.New(reader)),
	}, nil
}

// OpenZipStore reads a zip image from filesystem and serves its content.
func OpenZipStore(filesystem afero.Fs, filename string) (*Store, error) {
	image, err := afero.ReadFile(filesystem, filename)
	if err != nil {
		return nil, errors.New(err)
	}
	log.Debugf("Store: Loaded image %s (%d bytes)", filename, len(image))
	return NewZipStore(image)
}

// Mount makes the files of filesystem visible below path, read-only. The
// mount hides any stored files below the same path.
func (s *Store) Mount(path string, filesystem afero.Fs) error {
	mountPath, err := s.fs.mount(path, afero.NewReadOnlyFs(filesystem))
	if err != nil {
		return err
	}
	log.Debugf("Store: Mounted %s", mountPath)
	return nil
}

// Exists reports whether path names a stored file. Script paths (".js")
// also match their compressed variants.
func (s *Store) Exists(path string) bool {
	_, _, ok := s.locate(path)
	return ok
}

// ReadFile returns the content stored at path, decompressing it if only a
// compressed variant is stored.
func (s *Store) ReadFile(path string) (string, error) {
	name, kind, ok := s.locate(path)
	if !ok {
		return "", errors.New(&os.PathError{Op: "open", Path: path, Err: os.ErrNotExist})
	}

	data, err := s.fs.ReadFile(name)
	if err != nil {
		return "", errors.New(err)
	}

	switch kind {
	case compressionGzip:
		log.Debugf("Store: GZIP decompressing %s", name)
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return "", errors.New(err)
		}
		defer reader.Close()
		data, err = ioutil.ReadAll(reader)
		if err != nil {
			return "", errors.New(err)
		}

	case compressionBzip2:
		log.Debugf("Store: BZIP2 decompressing %s", name)
		data, err = ioutil.ReadAll(bzip2.NewReader(bytes.NewReader(data)))
		if err != nil {
			return "", errors.New(err)
		}
	}
	return string(data), nil
}

// Names lists every stored file in lexical order.
func (s *Store) Names() ([]string, error) {
	names := make([]string, 0)
	err := s.fs.walkFiles(func(name string) {
		names = append(names, strings.TrimPrefix(name, "/"))
	})
	if err != nil {
		return nil, errors.New(err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) locate(path string) (string, compression, bool) {
	if path == "" {
		return "", compressionNone, false
	}
	name := storeName(path)
	if s.isFile(name) {
		return name, compressionNone, true
	}
	if !strings.HasSuffix(name, ".js") {
		return "", compressionNone, false
	}
	if s.isFile(name + ".gz") {
		return name + ".gz", compressionGzip, true
	}
	if s.isFile(name + ".bz2") {
		return name + ".bz2", compressionBzip2, true
	}
	return "", compressionNone, false
}

func (s *Store) isFile(name string) bool {
	info, err := s.fs.Stat(name)
	return err == nil && !info.IsDir()
}

func storeName(path string) string {
	return "/" + strings.TrimLeft(filepath.ToSlash(path), "/")
}
