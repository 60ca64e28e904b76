// Package host defines the primitive file and process operations a script
// embedding must provide, and an implementation backed by an afero
// filesystem.
package host

import (
	"time"
)

// PlatformWindows is the platform name reported on Windows hosts.
const PlatformWindows = "win32"

// FileStat is the result of a host stat call.
type FileStat struct {
	IsFile      bool
	IsDirectory bool
	Size        int64
	Atime       time.Time
	Mtime       time.Time
	Ctime       time.Time
}

// Host is the set of primitives exposed to scripts. Every call completes
// before it returns; none of them suspends the caller.
type Host interface {
	// ScriptArgs is the argument vector; element 0 is conventionally the
	// executing binary.
	ScriptArgs() []string
	Platform() string

	Realpath(path string) (string, error)
	Readdir(path string) ([]string, error)
	Stat(path string) (FileStat, error)
	Utimes(path string, atime, mtime time.Time) error
	Exists(path string, dir bool) bool

	ReadFile(path string) (string, error)
	WriteFile(path, contents string) error
	Remove(path string) error
	Mkdir(path string) error

	Getcwd() (string, error)
	Getenv(name string) (string, bool)

	// Print writes text as is, no newline is added.
	Print(text string)
	// Exit asks the embedding to terminate with code.
	Exit(code int)
}
