package minicjs

import (
	"fmt"
	"strings"
)

// UsageError reports a programmer error when calling Require or Resolve:
// a missing receiver or an empty specifier.
type UsageError struct {
	Op     string
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// ModuleNotFoundError is returned when none of the candidate paths of a
// specifier could be loaded.
type ModuleNotFoundError struct {
	Specifier string
	Tried     []string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("cannot find specified module '%s'\ntried next search paths: %s",
		e.Specifier, reprPaths(e.Tried))
}

// VisibilityError is returned when a module that may not load private
// modules looks up a cached private module.
type VisibilityError struct {
	Requester string
	Target    string
}

func (e *VisibilityError) Error() string {
	return fmt.Sprintf("'%s' cannot load private module '%s'", e.Requester, e.Target)
}

// CyclicDependencyError is returned when a module is required again while
// its own body is still executing. Chain lists the loading paths, outermost
// first, ending with the path that closed the cycle.
type CyclicDependencyError struct {
	Chain []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency detected: %s", strings.Join(e.Chain, " -> "))
}

// ExitError carries the status code passed to the host exit primitive by a
// running script.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("script exited with status %d", e.Code)
}

// ManifestError reports a missing or malformed store manifest.
type ManifestError struct {
	File   string
	Reason string
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest '%s': %s", e.File, e.Reason)
}

func reprPaths(paths []string) string {
	quoted := make([]string, len(paths))
	for i, path := range paths {
		quoted[i] = fmt.Sprintf("%q", path)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
