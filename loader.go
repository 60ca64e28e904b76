package minicjs

import (
	"bytes"
	"fmt"

	"github.com/apex/log"
	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"
	"github.com/go-errors/errors"
)

// Loader binds module records to a script runtime and to the store of
// internal modules they may be loaded from. A Loader, like the runtime it
// wraps, must only be used from a single goroutine.
type Loader struct {
	vm      *goja.Runtime
	store   *Store
	objects map[*goja.Object]*Module
}

// ModuleOptions configures a new module record. The zero value is a valid
// configuration: every field documents its default.
type ModuleOptions struct {
	// Exports is the initial exported value; nil creates an empty object.
	Exports goja.Value
	// Loaded marks the module as already loaded; defaults to false.
	Loaded bool
	// Cache is shared with every module loaded below this one; nil starts a
	// fresh cache.
	Cache *Cache
	// Private marks the module itself as private; defaults to false.
	Private bool
	// DenyPrivate forbids this module to look up private modules. The default
	// (false) permits it.
	DenyPrivate bool
	// Scope is copied into the module and every module it loads.
	Scope Scope
	// Paths lists search directories for bare specifiers, copied by value.
	Paths []string
}

func NewLoader(vm *goja.Runtime, store *Store) *Loader {
	return &Loader{
		vm:      vm,
		store:   store,
		objects: make(map[*goja.Object]*Module),
	}
}

func (l *Loader) Runtime() *goja.Runtime {
	return l.vm
}

func (l *Loader) Store() *Store {
	return l.store
}

// moduleOf returns the module record behind a script-side module object.
func (l *Loader) moduleOf(value goja.Value) (*Module, bool) {
	object, ok := value.(*goja.Object)
	if !ok {
		return nil, false
	}
	module, ok := l.objects[object]
	return module, ok
}

// compileUnit wraps source into a function whose parameters are the names
// of bindings and returns a unit invoking it with the bound values. The
// wrapper header shares the first source line so positions match the file.
func (l *Loader) compileUnit(path, source string, bindings *bindingList) (func() error, error) {
	var wrapper bytes.Buffer
	wrapper.WriteString("(function(")
	for i, name := range bindings.names {
		if i > 0 {
			wrapper.WriteString(", ")
		}
		wrapper.WriteString(name)
	}
	wrapper.WriteString(") {")
	wrapper.WriteString(source)
	wrapper.WriteString("\n})")

	ast, err := parser.ParseFile(nil, path, wrapper.String(), 0)
	if err != nil {
		return nil, errors.New(err)
	}
	program, err := goja.CompileAST(ast, false)
	if err != nil {
		return nil, errors.New(err)
	}
	value, err := l.vm.RunProgram(program)
	if err != nil {
		return nil, err
	}
	function, ok := goja.AssertFunction(value)
	if !ok {
		return nil, errors.New(fmt.Sprintf("module wrapper of '%s' is not callable", path))
	}

	arguments := make([]goja.Value, len(bindings.names))
	for i, name := range bindings.names {
		arguments[i] = l.vm.ToValue(bindings.values[name])
	}

	return func() error {
		log.Debugf("Loader: Executing module body %s", path)
		_, err := function(goja.Undefined(), arguments...)
		return err
	}, nil
}

// bindingList keeps identifiers in first-bound order while later bindings of
// the same name replace the value.
type bindingList struct {
	names  []string
	values map[string]interface{}
}

func newBindingList() *bindingList {
	return &bindingList{values: make(map[string]interface{})}
}

func (b *bindingList) bind(name string, value interface{}) {
	if _, ok := b.values[name]; !ok {
		b.names = append(b.names, name)
	}
	b.values[name] = value
}
