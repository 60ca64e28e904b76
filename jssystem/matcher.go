package jssystem

import (
	"strings"

	"github.com/apex/log"
	"github.com/bmatcuk/doublestar/v4"
)

// WalkMatcher walks the tree below root depth first, in entry order, and
// returns every file ending with one of extensions (any file when
// extensions is empty). Paths matching an exclude pattern are skipped; when
// includes are given a file must match one of them. Patterns are matched
// against the path relative to root as doublestar globs, so "**" spans any
// number of directories. Directories already visited through a symlink are
// not walked twice.
func WalkMatcher(root string, extensions, excludes, includes []string, useCaseSensitiveFileNames bool,
	currentDirectory string, depth int, entries func(path string) FileSystemEntries,
	realpath func(path string) string) []string {

	normalize := func(s string) string {
		if useCaseSensitiveFileNames {
			return s
		}
		return strings.ToLower(s)
	}

	base := root
	if base == "" {
		base = currentDirectory
	}

	results := make([]string, 0)
	visited := make(map[string]bool)

	var walk func(dir, relative string, level int)
	walk = func(dir, relative string, level int) {
		canonical := normalize(realpath(dir))
		if visited[canonical] {
			return
		}
		visited[canonical] = true

		content := entries(dir)
		for _, file := range content.Files {
			rel := joinRelative(relative, file)
			if !hasExtension(normalize(file), extensions, normalize) {
				continue
			}
			if matchesAny(normalize(rel), excludes, normalize) {
				continue
			}
			if len(includes) > 0 && !matchesAny(normalize(rel), includes, normalize) {
				continue
			}
			results = append(results, combinePaths(dir, file))
		}

		if depth != NoDepthLimit && level >= depth {
			return
		}
		for _, directory := range content.Directories {
			rel := joinRelative(relative, directory)
			if matchesAny(normalize(rel), excludes, normalize) {
				log.Debugf("JSSystem: Excluded directory %s", rel)
				continue
			}
			walk(combinePaths(dir, directory), rel, level+1)
		}
	}

	walk(base, "", 0)
	return results
}

func joinRelative(relative, name string) string {
	if relative == "" {
		return name
	}
	return relative + "/" + name
}

func hasExtension(name string, extensions []string, normalize func(string) string) bool {
	if len(extensions) == 0 {
		return true
	}
	for _, extension := range extensions {
		if strings.HasSuffix(name, normalize(extension)) {
			return true
		}
	}
	return false
}

func matchesAny(relative string, patterns []string, normalize func(string) string) bool {
	for _, pattern := range patterns {
		pattern = normalize(strings.TrimPrefix(pattern, "./"))
		if matchPattern(pattern, relative) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, relative string) bool {
	if ok, err := doublestar.Match(pattern, relative); err == nil && ok {
		return true
	}
	// a bare directory pattern excludes everything below it
	return strings.HasPrefix(relative, strings.TrimSuffix(pattern, "/")+"/")
}
