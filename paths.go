package minicjs

import (
	"regexp"
	"strings"
)

var qualifiedPath = regexp.MustCompile(`^\w`)

// splitPath splits on both separator styles and drops empty segments.
func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}

// resolvePath resolves path against the directory relto. Paths starting with
// a word character are treated as already qualified and returned unchanged.
func resolvePath(relto, path string) string {
	if qualifiedPath.MatchString(path) {
		return path
	}
	resolved := splitPath(relto)
	for _, segment := range splitPath(path) {
		switch segment {
		case "..":
			if len(resolved) > 0 {
				resolved = resolved[:len(resolved)-1]
			}
		case ".":
		default:
			resolved = append(resolved, segment)
		}
	}
	return strings.Join(resolved, "/")
}

// joinPaths concatenates the segments of both paths without normalizing
// "." or ".." segments.
func joinPaths(path1, path2 string) string {
	segments := append(splitPath(path1), splitPath(path2)...)
	return strings.Join(segments, "/")
}

// dirPath strips a trailing file name (a final segment carrying an
// extension) from path. Paths without one are returned as they are.
func dirPath(path string) string {
	idx := strings.LastIndexAny(path, "/\\")
	last := path[idx+1:]
	if last == "." || last == ".." || !strings.Contains(strings.Trim(last, "."), ".") {
		return path
	}
	return strings.TrimRight(path[:idx+1], "/\\")
}

func isRelativeSpecifier(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

func isDataModule(path string) bool {
	return strings.HasSuffix(path, ".json")
}
