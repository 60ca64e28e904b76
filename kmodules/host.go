// Package kmodules provides the native modules a kernel places in the module
// cache before any script runs.
package kmodules

import (
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/go-errors/errors"

	"github.com/relationsone/minicjs/host"
)

// NewHostModule builds the exports of the "jshost" module: the host
// primitives as script functions. Host failures are thrown as script errors
// prefixed with the name of the primitive.
func NewHostModule(vm *goja.Runtime, h host.Host) *goja.Object {
	exports := vm.NewObject()

	throw := func(op string, err error) {
		panic(vm.NewGoError(errors.Errorf("%s: %s", op, err.Error())))
	}
	pathArgument := func(op string, call goja.FunctionCall) string {
		path := call.Argument(0).String()
		if isNullish(call.Argument(0)) || path == "" {
			panic(vm.NewTypeError(op + ": expected valid path"))
		}
		return path
	}

	exports.Set("scriptArgs", stringArray(vm, h.ScriptArgs()))
	exports.Set("platform", h.Platform())

	exports.Set("realpath", func(call goja.FunctionCall) goja.Value {
		resolved, err := h.Realpath(pathArgument("realpath", call))
		if err != nil {
			throw("realpath", err)
		}
		return vm.ToValue(resolved)
	})

	exports.Set("readdir", func(call goja.FunctionCall) goja.Value {
		entries, err := h.Readdir(pathArgument("readdir", call))
		if err != nil {
			throw("readdir", err)
		}
		return stringArray(vm, entries)
	})

	exports.Set("stat", func(call goja.FunctionCall) goja.Value {
		stat, err := h.Stat(pathArgument("stat", call))
		if err != nil {
			throw("stat", err)
		}
		result := vm.NewObject()
		result.Set("isFile", stat.IsFile)
		result.Set("isDirectory", stat.IsDirectory)
		result.Set("size", stat.Size)
		result.Set("atime", milliseconds(stat.Atime))
		result.Set("mtime", milliseconds(stat.Mtime))
		result.Set("ctime", milliseconds(stat.Ctime))
		return result
	})

	exports.Set("utimes", func(call goja.FunctionCall) goja.Value {
		path := pathArgument("utimes", call)
		atime := fromMilliseconds(call.Argument(1).ToInteger())
		mtime := fromMilliseconds(call.Argument(2).ToInteger())
		if err := h.Utimes(path, atime, mtime); err != nil {
			throw("utimes", err)
		}
		return goja.Undefined()
	})

	exports.Set("print", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, argument := range call.Arguments {
			parts[i] = argument.String()
		}
		h.Print(strings.Join(parts, " "))
		return goja.Undefined()
	})

	exports.Set("readFile", func(call goja.FunctionCall) goja.Value {
		path := pathArgument("readFile", call)
		if !h.Exists(path, false) || h.Exists(path, true) {
			return goja.Undefined()
		}
		content, err := h.ReadFile(path)
		if err != nil {
			throw("readFile", err)
		}
		return vm.ToValue(content)
	})

	exports.Set("writeFile", func(call goja.FunctionCall) goja.Value {
		path := pathArgument("writeFile", call)
		if err := h.WriteFile(path, call.Argument(1).String()); err != nil {
			throw("writeFile", err)
		}
		return goja.Undefined()
	})

	exports.Set("remove", func(call goja.FunctionCall) goja.Value {
		if err := h.Remove(pathArgument("remove", call)); err != nil {
			throw("remove", err)
		}
		return goja.Undefined()
	})

	exports.Set("mkdir", func(call goja.FunctionCall) goja.Value {
		if err := h.Mkdir(pathArgument("mkdir", call)); err != nil {
			throw("mkdir", err)
		}
		return goja.Undefined()
	})

	exports.Set("getcwd", func(call goja.FunctionCall) goja.Value {
		cwd, err := h.Getcwd()
		if err != nil {
			throw("getcwd", err)
		}
		return vm.ToValue(cwd)
	})

	exports.Set("getenv", func(call goja.FunctionCall) goja.Value {
		value, ok := h.Getenv(call.Argument(0).String())
		if !ok {
			return goja.Undefined()
		}
		return vm.ToValue(value)
	})

	exports.Set("exit", func(call goja.FunctionCall) goja.Value {
		code := 1
		if !isNullish(call.Argument(0)) {
			code = int(call.Argument(0).ToInteger())
		}
		h.Exit(code)
		return goja.Undefined()
	})

	exports.Set("exists", func(call goja.FunctionCall) goja.Value {
		path := pathArgument("exists", call)
		return vm.ToValue(h.Exists(path, call.Argument(1).ToBoolean()))
	})

	return exports
}

func milliseconds(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

func fromMilliseconds(ms int64) time.Time {
	return time.Unix(0, ms*int64(time.Millisecond))
}

func isNullish(value goja.Value) bool {
	return value == nil || goja.IsUndefined(value) || goja.IsNull(value)
}

func stringArray(vm *goja.Runtime, values []string) *goja.Object {
	items := make([]interface{}, len(values))
	for i, value := range values {
		items[i] = value
	}
	return vm.NewArray(items...)
}
