package minicjs

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-errors/errors"
	"github.com/spf13/afero"
)

const pathSeparator = "/"

// compositeFs overlays mounted filesystems on the base filesystem of a
// store. A mount hides everything the base holds below its mount point.
// All names are absolute and slash separated.
type compositeFs struct {
	base   afero.Fs
	mounts map[string]afero.Fs
}

func newCompositeFs(base afero.Fs) *compositeFs {
	return &compositeFs{
		base:   base,
		mounts: make(map[string]afero.Fs),
	}
}

func (c *compositeFs) mount(mountPath string, mount afero.Fs) (string, error) {
	mountPath = path.Clean(pathSeparator + strings.TrimLeft(filepath.ToSlash(mountPath), pathSeparator))
	if mountPath == pathSeparator {
		return "", errors.Wrap(&UsageError{Op: "mount", Reason: "cannot mount over the store root"}, 1)
	}
	c.mounts[mountPath] = mount
	return mountPath, nil
}

// findMount returns the filesystem owning name, matched by the longest
// mount point, and the name inside that filesystem.
func (c *compositeFs) findMount(name string) (afero.Fs, string) {
	name = path.Clean(name)
	segs := mountSegments(name)
	length := len(segs)
	for i := length; i > 1; i-- {
		mountPath := strings.Join(segs[0:i], pathSeparator)
		if fs, ok := c.mounts[mountPath]; ok {
			return fs, pathSeparator + strings.Join(segs[i:length], pathSeparator)
		}
	}
	return c.base, name
}

func (c *compositeFs) Stat(name string) (os.FileInfo, error) {
	mount, innerPath := c.findMount(name)
	return mount.Stat(innerPath)
}

func (c *compositeFs) ReadFile(name string) ([]byte, error) {
	mount, innerPath := c.findMount(name)
	return afero.ReadFile(mount, innerPath)
}

// walkFiles calls fn with the name of every regular file, base files first
// and then the mounts in the order of their mount points.
func (c *compositeFs) walkFiles(fn func(name string)) error {
	err := afero.Walk(c.base, pathSeparator, func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name = filepath.ToSlash(name)
		if c.shadowed(name) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			fn(name)
		}
		return nil
	})
	if err != nil {
		return err
	}

	mountPaths := make([]string, 0, len(c.mounts))
	for mountPath := range c.mounts {
		mountPaths = append(mountPaths, mountPath)
	}
	sort.Strings(mountPaths)

	for _, mountPath := range mountPaths {
		mount := c.mounts[mountPath]
		err := afero.Walk(mount, pathSeparator, func(name string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			full := path.Join(mountPath, filepath.ToSlash(name))
			if owner, _ := c.findMount(full); owner != mount {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !info.IsDir() {
				fn(full)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// shadowed reports whether a base name lies below a mount point.
func (c *compositeFs) shadowed(name string) bool {
	owner, _ := c.findMount(name)
	return owner != c.base
}

// mountSegments splits an absolute name in segments:
//	"/"             -> []string{""}
//	"/lib/util.js"  -> []string{"", "lib", "util.js"}
func mountSegments(name string) []string {
	name = strings.TrimSuffix(name, pathSeparator)
	if name == "" {
		return []string{""}
	}
	return strings.Split(name, pathSeparator)
}
