// Package jssystem adapts the host primitives to the filesystem interface a
// hosted compiler expects from its "sys" object.
package jssystem

import (
	"sort"
	"strings"
	"time"

	"github.com/relationsone/minicjs/host"
)

// NoDepthLimit disables the depth limit of ReadDirectory.
const NoDepthLimit = -1

// FileSystemEntries is the classified content of one directory.
type FileSystemEntries struct {
	Files       []string
	Directories []string
}

// Matcher walks a directory tree using entries and returns the matching
// file paths.
type Matcher func(path string, extensions, excludes, includes []string, useCaseSensitiveFileNames bool,
	currentDirectory string, depth int, entries func(path string) FileSystemEntries,
	realpath func(path string) string) []string

// System is the adapter. It keeps no state beyond the values captured when it
// was created.
type System struct {
	host                      host.Host
	matcher                   Matcher
	executingFilePath         string
	args                      []string
	newLine                   string
	useCaseSensitiveFileNames bool
}

// New creates a System over h. A nil matcher selects WalkMatcher.
func New(h host.Host, matcher Matcher) *System {
	if matcher == nil {
		matcher = WalkMatcher
	}

	scriptArgs := h.ScriptArgs()
	s := &System{
		host:                      h,
		matcher:                   matcher,
		newLine:                   "\n",
		useCaseSensitiveFileNames: true,
	}
	if len(scriptArgs) > 0 {
		s.executingFilePath = scriptArgs[0]
		s.args = scriptArgs[1:]
	}
	if h.Platform() == host.PlatformWindows {
		s.newLine = "\r\n"
		s.useCaseSensitiveFileNames = false
	}
	return s
}

func (s *System) NewLine() string {
	return s.newLine
}

func (s *System) Args() []string {
	args := make([]string, len(s.args))
	copy(args, s.args)
	return args
}

func (s *System) UseCaseSensitiveFileNames() bool {
	return s.useCaseSensitiveFileNames
}

func (s *System) Write(text string) {
	s.host.Print(text)
}

func (s *System) ReadFile(path string) (string, error) {
	return s.host.ReadFile(path)
}

func (s *System) WriteFile(path, data string) error {
	return s.host.WriteFile(path, data)
}

func (s *System) ResolvePath(path string) string {
	return path
}

func (s *System) FileExists(path string) bool {
	return s.host.Exists(path, false)
}

func (s *System) DeleteFile(path string) error {
	return s.host.Remove(path)
}

func (s *System) GetModifiedTime(path string) (time.Time, error) {
	stat, err := s.host.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return stat.Mtime, nil
}

func (s *System) SetModifiedTime(path string, t time.Time) error {
	return s.host.Utimes(path, t, t)
}

func (s *System) DirectoryExists(path string) bool {
	return s.host.Exists(path, true)
}

// CreateDirectory creates path unless it already is a directory.
func (s *System) CreateDirectory(path string) error {
	if s.DirectoryExists(path) {
		return nil
	}
	return s.host.Mkdir(path)
}

func (s *System) GetExecutingFilePath() string {
	return s.executingFilePath
}

func (s *System) GetCurrentDirectory() (string, error) {
	return s.host.Getcwd()
}

func (s *System) GetEnvironmentVariable(name string) (string, bool) {
	return s.host.Getenv(name)
}

func (s *System) Exit(code int) {
	s.host.Exit(code)
}

// Realpath falls back to path when the host cannot resolve it, the matcher
// only uses it to detect symlink loops.
func (s *System) Realpath(path string) string {
	resolved, err := s.host.Realpath(path)
	if err != nil {
		return path
	}
	return resolved
}

// AccessibleEntries lists path sorted by name and splits the entries into
// files and directories. An unreadable directory yields empty entries and
// entries that fail to stat are left out.
func (s *System) AccessibleEntries(path string) FileSystemEntries {
	result := FileSystemEntries{Files: []string{}, Directories: []string{}}

	dir := path
	if dir == "" {
		dir = "."
	}
	entries, err := s.host.Readdir(dir)
	if err != nil {
		return result
	}
	sort.Strings(entries)

	for _, entry := range entries {
		if entry == "." || entry == ".." {
			continue
		}
		stat, err := s.host.Stat(combinePaths(path, entry))
		if err != nil {
			continue
		}
		if stat.IsFile {
			result.Files = append(result.Files, entry)
		} else if stat.IsDirectory {
			result.Directories = append(result.Directories, entry)
		}
	}
	return result
}

// GetDirectories returns the subdirectories of path in host order.
func (s *System) GetDirectories(path string) []string {
	directories := []string{}
	entries, err := s.host.Readdir(path)
	if err != nil {
		return directories
	}
	for _, entry := range entries {
		stat, err := s.host.Stat(combinePaths(path, entry))
		if err != nil {
			continue
		}
		if stat.IsDirectory {
			directories = append(directories, entry)
		}
	}
	return directories
}

// ReadDirectory delegates the walk below path to the matcher.
func (s *System) ReadDirectory(path string, extensions, excludes, includes []string, depth int) ([]string, error) {
	cwd, err := s.host.Getcwd()
	if err != nil {
		return nil, err
	}
	return s.matcher(path, extensions, excludes, includes, s.useCaseSensitiveFileNames, cwd, depth,
		s.AccessibleEntries, s.Realpath), nil
}

func combinePaths(path1, path2 string) string {
	if path2 == "" {
		return path1
	}
	if path1 == "" || strings.HasPrefix(path2, "/") {
		return path2
	}
	if strings.HasSuffix(path1, "/") {
		return path1 + path2
	}
	return path1 + "/" + path2
}
