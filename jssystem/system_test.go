package jssystem

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-errors/errors"
	"github.com/spf13/afero"

	"github.com/relationsone/minicjs/host"
)

func newProjectHost(t *testing.T, platform string) (*host.FsHost, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := []string{
		"/proj/README.md",
		"/proj/src/a.ts",
		"/proj/src/b.js",
		"/proj/src/sub/c.ts",
		"/proj/src/sub/deep/d.ts",
		"/proj/node_modules/x/index.ts",
	}
	for _, file := range files {
		if err := afero.WriteFile(fs, file, []byte(file), 0644); err != nil {
			t.Fatal(err)
		}
	}
	h := host.NewFsHost(host.Config{
		Filesystem: fs,
		Args:       []string{"/bin/tsc", "--outDir", "dist"},
		Platform:   platform,
		Cwd:        "/proj",
		Getenv: func(name string) (string, bool) {
			if name == "TSC_HOME" {
				return "/opt/tsc", true
			}
			return "", false
		},
		Stdout: &bytes.Buffer{},
	})
	return h, fs
}

// flakyHost fails to stat every path ending with failStat.
type flakyHost struct {
	*host.FsHost
	failStat string
}

func (h *flakyHost) Stat(path string) (host.FileStat, error) {
	if strings.HasSuffix(path, h.failStat) {
		return host.FileStat{}, errors.New("stat failed")
	}
	return h.FsHost.Stat(path)
}

// exitHost records the exit status instead of terminating.
type exitHost struct {
	*host.FsHost
	code *int
}

func (h *exitHost) Exit(code int) {
	*h.code = code
}

func TestNewSystem(t *testing.T) {
	h, _ := newProjectHost(t, "linux")
	sys := New(h, nil)
	if sys.GetExecutingFilePath() != "/bin/tsc" {
		t.Errorf("GetExecutingFilePath = %q", sys.GetExecutingFilePath())
	}
	if !reflect.DeepEqual(sys.Args(), []string{"--outDir", "dist"}) {
		t.Errorf("Args = %v", sys.Args())
	}
	if sys.NewLine() != "\n" || !sys.UseCaseSensitiveFileNames() {
		t.Error("unexpected line ending or case sensitivity on linux")
	}

	h, _ = newProjectHost(t, host.PlatformWindows)
	sys = New(h, nil)
	if sys.NewLine() != "\r\n" || sys.UseCaseSensitiveFileNames() {
		t.Error("unexpected line ending or case sensitivity on win32")
	}

	empty := New(host.NewFsHost(host.Config{Filesystem: afero.NewMemMapFs(), Args: []string{}}), nil)
	if empty.GetExecutingFilePath() != "" || len(empty.Args()) != 0 {
		t.Error("empty argument vector not handled")
	}
}

func TestAccessibleEntries(t *testing.T) {
	h, _ := newProjectHost(t, "linux")
	sys := New(h, nil)

	entries := sys.AccessibleEntries("/proj/src")
	if !reflect.DeepEqual(entries.Files, []string{"a.ts", "b.js"}) {
		t.Errorf("Files = %v", entries.Files)
	}
	if !reflect.DeepEqual(entries.Directories, []string{"sub"}) {
		t.Errorf("Directories = %v", entries.Directories)
	}

	entries = sys.AccessibleEntries("")
	if !reflect.DeepEqual(entries.Files, []string{"README.md"}) ||
		!reflect.DeepEqual(entries.Directories, []string{"node_modules", "src"}) {
		t.Errorf("entries of the working directory = %+v", entries)
	}

	entries = sys.AccessibleEntries("/missing")
	if entries.Files == nil || entries.Directories == nil || len(entries.Files)+len(entries.Directories) != 0 {
		t.Errorf("unreadable directory gave %+v", entries)
	}

	flaky := New(&flakyHost{FsHost: h, failStat: "b.js"}, nil)
	entries = flaky.AccessibleEntries("/proj/src")
	if !reflect.DeepEqual(entries.Files, []string{"a.ts"}) {
		t.Errorf("entries failing stat were not skipped: %v", entries.Files)
	}
	if dirs := flaky.GetDirectories("/proj/src"); !reflect.DeepEqual(dirs, []string{"sub"}) {
		t.Errorf("GetDirectories = %v", dirs)
	}
}

func TestGetDirectories(t *testing.T) {
	h, _ := newProjectHost(t, "linux")
	sys := New(h, nil)

	if dirs := sys.GetDirectories("/proj"); !reflect.DeepEqual(dirs, []string{"node_modules", "src"}) {
		t.Errorf("GetDirectories = %v", dirs)
	}
	if dirs := sys.GetDirectories("/missing"); dirs == nil || len(dirs) != 0 {
		t.Errorf("GetDirectories of a missing directory = %v", dirs)
	}
}

func TestReadDirectory(t *testing.T) {
	h, _ := newProjectHost(t, "linux")
	sys := New(h, nil)

	tests := []struct {
		name       string
		path       string
		extensions []string
		excludes   []string
		includes   []string
		depth      int
		want       []string
	}{
		{"all", "/proj/src", nil, nil, nil, NoDepthLimit,
			[]string{"/proj/src/a.ts", "/proj/src/b.js", "/proj/src/sub/c.ts", "/proj/src/sub/deep/d.ts"}},
		{"extension", "/proj", []string{".ts"}, []string{"node_modules"}, nil, NoDepthLimit,
			[]string{"/proj/src/a.ts", "/proj/src/sub/c.ts", "/proj/src/sub/deep/d.ts"}},
		{"depth", "/proj", []string{".ts"}, []string{"node_modules"}, nil, 1,
			[]string{"/proj/src/a.ts"}},
		{"include", "/proj", []string{".ts"}, nil, []string{"src/sub/*"}, NoDepthLimit,
			[]string{"/proj/src/sub/c.ts"}},
		{"recursive exclude", "/proj/src", nil, []string{"**/deep"}, nil, NoDepthLimit,
			[]string{"/proj/src/a.ts", "/proj/src/b.js", "/proj/src/sub/c.ts"}},
		{"recursive include", "/proj", []string{".ts"}, []string{"node_modules"}, []string{"src/**/*.ts"}, NoDepthLimit,
			[]string{"/proj/src/a.ts", "/proj/src/sub/c.ts", "/proj/src/sub/deep/d.ts"}},
		{"inner recursive exclude", "/proj/src", nil, []string{"**/sub/**"}, nil, NoDepthLimit,
			[]string{"/proj/src/a.ts", "/proj/src/b.js"}},
		{"recursive include and exclude", "/proj", nil, []string{"src/**/deep"}, []string{"**/*.ts"}, NoDepthLimit,
			[]string{"/proj/node_modules/x/index.ts", "/proj/src/a.ts", "/proj/src/sub/c.ts"}},
		{"working directory", "", []string{".md"}, nil, nil, NoDepthLimit,
			[]string{"/proj/README.md"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := sys.ReadDirectory(tt.path, tt.extensions, tt.excludes, tt.includes, tt.depth)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(files, tt.want) {
				t.Errorf("ReadDirectory = %v, want %v", files, tt.want)
			}
		})
	}
}

func TestCaseInsensitiveMatching(t *testing.T) {
	h, _ := newProjectHost(t, host.PlatformWindows)
	sys := New(h, nil)
	files, err := sys.ReadDirectory("/proj", []string{".MD"}, nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(files, []string{"/proj/README.md"}) {
		t.Errorf("ReadDirectory = %v", files)
	}
}

func TestSystemFileOperations(t *testing.T) {
	h, fs := newProjectHost(t, "linux")
	sys := New(h, nil)

	if !sys.FileExists("/proj/src/a.ts") || sys.FileExists("/proj/none.ts") {
		t.Error("FileExists misreports")
	}
	if !sys.DirectoryExists("/proj/src") || sys.DirectoryExists("/proj/src/a.ts") {
		t.Error("DirectoryExists misreports")
	}

	if err := sys.CreateDirectory("/proj/dist"); err != nil {
		t.Fatal(err)
	}
	if err := sys.CreateDirectory("/proj/dist"); err != nil {
		t.Errorf("CreateDirectory of an existing directory failed: %v", err)
	}

	if err := sys.WriteFile("/proj/dist/a.js", "compiled"); err != nil {
		t.Fatal(err)
	}
	if content, err := sys.ReadFile("/proj/dist/a.js"); err != nil || content != "compiled" {
		t.Errorf("ReadFile = %q, %v", content, err)
	}

	mtime := time.Unix(1600000000, 0)
	if err := sys.SetModifiedTime("/proj/dist/a.js", mtime); err != nil {
		t.Fatal(err)
	}
	if got, err := sys.GetModifiedTime("/proj/dist/a.js"); err != nil || !got.Equal(mtime) {
		t.Errorf("GetModifiedTime = %v, %v", got, err)
	}
	if _, err := sys.GetModifiedTime("/proj/none"); err == nil {
		t.Error("GetModifiedTime of a missing file succeeded")
	}

	if err := sys.DeleteFile("/proj/dist/a.js"); err != nil {
		t.Fatal(err)
	}
	if exists, _ := afero.Exists(fs, "/proj/dist/a.js"); exists {
		t.Error("DeleteFile left the file")
	}

	if cwd, err := sys.GetCurrentDirectory(); err != nil || cwd != "/proj" {
		t.Errorf("GetCurrentDirectory = %q, %v", cwd, err)
	}
	if value, ok := sys.GetEnvironmentVariable("TSC_HOME"); !ok || value != "/opt/tsc" {
		t.Errorf("GetEnvironmentVariable = %q, %v", value, ok)
	}
	if sys.ResolvePath("../x") != "../x" {
		t.Error("ResolvePath is not the identity")
	}
	if sys.Realpath("src") != "/proj/src" || sys.Realpath("/none") != "/none" {
		t.Errorf("Realpath = %q, %q", sys.Realpath("src"), sys.Realpath("/none"))
	}
}

func TestCombinePaths(t *testing.T) {
	tests := []struct {
		path1, path2, want string
	}{
		{"", "a", "a"},
		{"dir", "", "dir"},
		{"dir", "a", "dir/a"},
		{"dir/", "a", "dir/a"},
		{"dir", "/abs", "/abs"},
	}
	for _, tt := range tests {
		if got := combinePaths(tt.path1, tt.path2); got != tt.want {
			t.Errorf("combinePaths(%q, %q) = %q, want %q", tt.path1, tt.path2, got, tt.want)
		}
	}
}
