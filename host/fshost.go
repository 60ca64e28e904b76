package host

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/apex/log"
	"github.com/go-errors/errors"
	"github.com/spf13/afero"
)

// Config configures a FsHost. Zero fields fall back to the process
// environment.
type Config struct {
	// Filesystem defaults to the operating system filesystem.
	Filesystem afero.Fs
	// Args defaults to os.Args.
	Args []string
	// Platform defaults to the running operating system, "win32" on Windows.
	Platform string
	// Cwd defaults to os.Getwd.
	Cwd string
	// Getenv defaults to os.LookupEnv.
	Getenv func(name string) (string, bool)
	// Stdout defaults to os.Stdout.
	Stdout io.Writer
	// ExitFunc is called by Exit; nil leaves termination to the embedding.
	ExitFunc func(code int)
}

// FsHost implements Host on top of an afero filesystem.
type FsHost struct {
	fs       afero.Fs
	args     []string
	platform string
	cwd      string
	getenv   func(string) (string, bool)
	stdout   io.Writer
	exit     func(int)
}

func NewFsHost(config Config) *FsHost {
	h := &FsHost{
		fs:       config.Filesystem,
		args:     config.Args,
		platform: config.Platform,
		cwd:      config.Cwd,
		getenv:   config.Getenv,
		stdout:   config.Stdout,
		exit:     config.ExitFunc,
	}
	if h.fs == nil {
		h.fs = afero.NewOsFs()
	}
	if h.args == nil {
		h.args = os.Args
	}
	if h.platform == "" {
		h.platform = runtimePlatform()
	}
	if h.getenv == nil {
		h.getenv = os.LookupEnv
	}
	if h.stdout == nil {
		h.stdout = os.Stdout
	}
	return h
}

func (h *FsHost) Filesystem() afero.Fs {
	return h.fs
}

func (h *FsHost) ScriptArgs() []string {
	args := make([]string, len(h.args))
	copy(args, h.args)
	return args
}

func (h *FsHost) Platform() string {
	return h.platform
}

func (h *FsHost) Realpath(path string) (string, error) {
	abs := h.resolve(path)
	if !filepath.IsAbs(abs) {
		cwd, err := h.Getcwd()
		if err != nil {
			return "", err
		}
		abs = filepath.Join(cwd, abs)
	}
	if _, err := h.fs.Stat(abs); err != nil {
		return "", errors.New(err)
	}
	if _, ok := h.fs.(*afero.OsFs); ok {
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return "", errors.New(err)
		}
		return resolved, nil
	}
	return filepath.Clean(abs), nil
}

func (h *FsHost) Readdir(path string) ([]string, error) {
	infos, err := afero.ReadDir(h.fs, h.resolve(path))
	if err != nil {
		return nil, errors.New(err)
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

// Stat reports the modification time for all three timestamps; afero does
// not expose access or change times portably.
func (h *FsHost) Stat(path string) (FileStat, error) {
	info, err := h.fs.Stat(h.resolve(path))
	if err != nil {
		return FileStat{}, errors.New(err)
	}
	return FileStat{
		IsFile:      info.Mode().IsRegular(),
		IsDirectory: info.IsDir(),
		Size:        info.Size(),
		Atime:       info.ModTime(),
		Mtime:       info.ModTime(),
		Ctime:       info.ModTime(),
	}, nil
}

func (h *FsHost) Utimes(path string, atime, mtime time.Time) error {
	if err := h.fs.Chtimes(h.resolve(path), atime, mtime); err != nil {
		return errors.New(err)
	}
	return nil
}

func (h *FsHost) Exists(path string, dir bool) bool {
	info, err := h.fs.Stat(h.resolve(path))
	if err != nil {
		return false
	}
	if dir {
		return info.IsDir()
	}
	return true
}

func (h *FsHost) ReadFile(path string) (string, error) {
	data, err := afero.ReadFile(h.fs, h.resolve(path))
	if err != nil {
		return "", errors.New(err)
	}
	return string(data), nil
}

func (h *FsHost) WriteFile(path, contents string) error {
	if err := afero.WriteFile(h.fs, h.resolve(path), []byte(contents), 0666); err != nil {
		return errors.New(err)
	}
	return nil
}

func (h *FsHost) Remove(path string) error {
	if err := h.fs.Remove(h.resolve(path)); err != nil {
		return errors.New(err)
	}
	return nil
}

func (h *FsHost) Mkdir(path string) error {
	if err := h.fs.Mkdir(h.resolve(path), 0777); err != nil {
		return errors.New(err)
	}
	return nil
}

func (h *FsHost) Getcwd() (string, error) {
	if h.cwd != "" {
		return h.cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.New(err)
	}
	return cwd, nil
}

func (h *FsHost) Getenv(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	return h.getenv(name)
}

func (h *FsHost) Print(text string) {
	if _, err := io.WriteString(h.stdout, text); err != nil {
		log.WithError(err).Warn("Host: Print failed")
	}
}

func (h *FsHost) Exit(code int) {
	log.Debugf("Host: Exit requested with status %d", code)
	if h.exit != nil {
		h.exit(code)
	}
}

// resolve makes relative paths relative to the configured working
// directory. Without one they are left to the filesystem.
func (h *FsHost) resolve(path string) string {
	if h.cwd == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(h.cwd, path)
}

func runtimePlatform() string {
	if runtime.GOOS == "windows" {
		return PlatformWindows
	}
	return runtime.GOOS
}
