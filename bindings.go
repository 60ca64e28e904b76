package minicjs

import (
	"github.com/dop251/goja"
	"github.com/go-errors/errors"
)

// newModuleObject creates the script-side view of module. The "exports"
// property reads and replaces the record's exported value, so a body may
// assign module.exports.
func (l *Loader) newModuleObject(module *Module) *goja.Object {
	vm := l.vm
	object := vm.NewObject()

	getter := func(get func() interface{}) goja.Value {
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			return vm.ToValue(get())
		})
	}

	object.DefineDataProperty("id", vm.ToValue(module.id), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE)
	object.DefineDataProperty("path", vm.ToValue(module.path), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE)
	object.DefineDataProperty("dirpath", vm.ToValue(module.dirpath), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE)

	object.DefineAccessorProperty("exports",
		getter(func() interface{} { return module.exports }),
		vm.ToValue(func(call goja.FunctionCall) goja.Value {
			module.exports = call.Argument(0)
			return goja.Undefined()
		}),
		goja.FLAG_FALSE, goja.FLAG_TRUE)

	object.DefineAccessorProperty("loaded",
		getter(func() interface{} { return module.loaded }), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	object.DefineAccessorProperty("private",
		getter(func() interface{} { return module.private }), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	object.DefineAccessorProperty("loadPrivate",
		getter(func() interface{} { return module.loadPrivate }), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	object.DefineAccessorProperty("paths",
		getter(func() interface{} { return stringArray(vm, module.paths) }), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	object.Set("require", l.requireMethod)
	object.Set("resolve", l.resolveMethod)

	l.objects[object] = module
	return object
}

// requireMethod implements module.require; the receiver must be a module
// object created by this loader.
func (l *Loader) requireMethod(call goja.FunctionCall) goja.Value {
	module, ok := l.moduleOf(call.This)
	if !ok {
		panic(l.vm.NewTypeError("invalid receiver"))
	}
	return module.requireFromScript(call.Argument(0))
}

func (l *Loader) resolveMethod(call goja.FunctionCall) goja.Value {
	module, ok := l.moduleOf(call.This)
	if !ok {
		panic(l.vm.NewTypeError("invalid receiver"))
	}
	specifier, ok := call.Argument(0).Export().(string)
	if !ok || specifier == "" {
		panic(l.vm.NewTypeError("expected valid path argument"))
	}
	resolved, err := module.Resolve(specifier)
	if err != nil {
		return l.rethrow(err)
	}
	return l.vm.ToValue(resolved)
}

// boundRequire returns the require function injected into the module body.
func (m *Module) boundRequire() func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		return m.requireFromScript(call.Argument(0))
	}
}

func (m *Module) requireFromScript(argument goja.Value) goja.Value {
	vm := m.loader.vm
	specifier, ok := argument.Export().(string)
	if !ok || specifier == "" {
		panic(vm.NewTypeError("expected valid path argument"))
	}
	exports, err := m.Require(specifier)
	if err != nil {
		return m.loader.rethrow(err)
	}
	return exports
}

// rethrow raises err inside the running script. Exceptions thrown by nested
// module bodies are rethrown unchanged; an interrupted runtime (exit) is
// interrupted again so the outer frames stop as well.
func (l *Loader) rethrow(err error) goja.Value {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		l.vm.Interrupt(interrupted.Value())
		return goja.Undefined()
	}

	var exception *goja.Exception
	if errors.As(err, &exception) {
		panic(exception.Value())
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		panic(l.vm.NewTypeError(usage.Error()))
	}

	panic(l.vm.NewGoError(err))
}

func stringArray(vm *goja.Runtime, values []string) *goja.Object {
	items := make([]interface{}, len(values))
	for i, value := range values {
		items[i] = value
	}
	return vm.NewArray(items...)
}
