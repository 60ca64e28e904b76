package minicjs

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/go-errors/errors"
)

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Scope is the set of free identifiers injected into every module body
// created below a module. A Scope is never modified after construction;
// With returns a copy.
type Scope struct {
	entries map[string]interface{}
}

// NewScope copies entries into a new Scope. Every name must be a valid
// script identifier.
func NewScope(entries map[string]interface{}) (Scope, error) {
	scope := Scope{entries: make(map[string]interface{}, len(entries))}
	for name, value := range entries {
		if !identifier.MatchString(name) {
			return Scope{}, errors.New(fmt.Sprintf("illegal scope identifier '%s'", name))
		}
		scope.entries[name] = value
	}
	return scope, nil
}

// With returns a copy of the scope with name bound to value.
func (s Scope) With(name string, value interface{}) (Scope, error) {
	entries := s.copyEntries()
	entries[name] = value
	return NewScope(entries)
}

func (s Scope) Get(name string) (interface{}, bool) {
	value, ok := s.entries[name]
	return value, ok
}

func (s Scope) Len() int {
	return len(s.entries)
}

// Names returns the bound identifiers in lexical order.
func (s Scope) Names() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s Scope) copyEntries() map[string]interface{} {
	entries := make(map[string]interface{}, len(s.entries))
	for name, value := range s.entries {
		entries[name] = value
	}
	return entries
}

func (s Scope) clone() Scope {
	return Scope{entries: s.copyEntries()}
}
