package jssystem

import (
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/dop251/goja"

	"github.com/relationsone/minicjs/host"
)

// Bind exposes sys as a script object using the property names a hosted
// compiler looks up on its "sys" object.
func Bind(vm *goja.Runtime, sys *System) *goja.Object {
	object := vm.NewObject()

	throw := func(err error) {
		panic(vm.NewGoError(err))
	}

	object.Set("args", stringArray(vm, sys.Args()))
	object.Set("newLine", sys.NewLine())
	object.Set("useCaseSensitiveFileNames", sys.UseCaseSensitiveFileNames())

	object.Set("write", func(call goja.FunctionCall) goja.Value {
		sys.Write(call.Argument(0).String())
		return goja.Undefined()
	})

	object.Set("readFile", func(call goja.FunctionCall) goja.Value {
		content, err := sys.ReadFile(call.Argument(0).String())
		if err != nil {
			log.Debugf("JSSystem: readFile failed: %s", err.Error())
			return goja.Undefined()
		}
		return vm.ToValue(content)
	})

	object.Set("writeFile", func(call goja.FunctionCall) goja.Value {
		if err := sys.WriteFile(call.Argument(0).String(), call.Argument(1).String()); err != nil {
			throw(err)
		}
		return goja.Undefined()
	})

	object.Set("resolvePath", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(sys.ResolvePath(call.Argument(0).String()))
	})

	object.Set("fileExists", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(sys.FileExists(call.Argument(0).String()))
	})

	object.Set("deleteFile", func(call goja.FunctionCall) goja.Value {
		if err := sys.DeleteFile(call.Argument(0).String()); err != nil {
			throw(err)
		}
		return goja.Undefined()
	})

	object.Set("getModifiedTime", func(call goja.FunctionCall) goja.Value {
		mtime, err := sys.GetModifiedTime(call.Argument(0).String())
		if err != nil {
			return goja.Undefined()
		}
		date, err := vm.New(vm.Get("Date"), vm.ToValue(mtime.UnixNano()/int64(time.Millisecond)))
		if err != nil {
			throw(err)
		}
		return date
	})

	object.Set("setModifiedTime", func(call goja.FunctionCall) goja.Value {
		path := call.Argument(0).String()
		var mtime time.Time
		switch value := call.Argument(1).Export().(type) {
		case time.Time:
			mtime = value
		default:
			mtime = time.Unix(0, call.Argument(1).ToInteger()*int64(time.Millisecond))
		}
		if err := sys.SetModifiedTime(path, mtime); err != nil {
			throw(err)
		}
		return goja.Undefined()
	})

	object.Set("directoryExists", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(sys.DirectoryExists(call.Argument(0).String()))
	})

	object.Set("createDirectory", func(call goja.FunctionCall) goja.Value {
		if err := sys.CreateDirectory(call.Argument(0).String()); err != nil {
			throw(err)
		}
		return goja.Undefined()
	})

	object.Set("getExecutingFilePath", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(sys.GetExecutingFilePath())
	})

	object.Set("getCurrentDirectory", func(call goja.FunctionCall) goja.Value {
		cwd, err := sys.GetCurrentDirectory()
		if err != nil {
			throw(err)
		}
		return vm.ToValue(cwd)
	})

	object.Set("getDirectories", func(call goja.FunctionCall) goja.Value {
		return stringArray(vm, sys.GetDirectories(call.Argument(0).String()))
	})

	object.Set("getEnvironmentVariable", func(call goja.FunctionCall) goja.Value {
		value, ok := sys.GetEnvironmentVariable(call.Argument(0).String())
		if !ok {
			return goja.Undefined()
		}
		return vm.ToValue(value)
	})

	object.Set("readDirectory", func(call goja.FunctionCall) goja.Value {
		depth := NoDepthLimit
		if !isNullish(call.Argument(4)) {
			depth = int(call.Argument(4).ToInteger())
		}
		files, err := sys.ReadDirectory(call.Argument(0).String(),
			stringsOf(call.Argument(1)), stringsOf(call.Argument(2)), stringsOf(call.Argument(3)), depth)
		if err != nil {
			throw(err)
		}
		return stringArray(vm, files)
	})

	object.Set("exit", func(call goja.FunctionCall) goja.Value {
		code := 1
		if !isNullish(call.Argument(0)) {
			code = int(call.Argument(0).ToInteger())
		}
		sys.Exit(code)
		return goja.Undefined()
	})

	object.Set("realpath", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(sys.Realpath(call.Argument(0).String()))
	})

	return object
}

// NewFactory returns the script function that builds the sys object for a
// compiler namespace. The namespace's own matchFiles is used when it has
// one, the Go walker otherwise.
func NewFactory(vm *goja.Runtime, h host.Host) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var matcher Matcher
		if ts, ok := call.Argument(0).(*goja.Object); ok {
			if matchFiles, ok := goja.AssertFunction(ts.Get("matchFiles")); ok {
				log.Debug("JSSystem: Using script matchFiles")
				matcher = scriptMatcher(vm, matchFiles)
			}
		}
		return Bind(vm, New(h, matcher))
	}
}

// scriptMatcher calls a script implementation of the matcher. The entries
// callback is handed over as a function returning {files, directories}.
func scriptMatcher(vm *goja.Runtime, matchFiles goja.Callable) Matcher {
	return func(path string, extensions, excludes, includes []string, useCaseSensitiveFileNames bool,
		currentDirectory string, depth int, entries func(path string) FileSystemEntries,
		realpath func(path string) string) []string {

		getEntries := func(call goja.FunctionCall) goja.Value {
			content := entries(call.Argument(0).String())
			result := vm.NewObject()
			result.Set("files", stringArray(vm, content.Files))
			result.Set("directories", stringArray(vm, content.Directories))
			return result
		}
		resolve := func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(realpath(call.Argument(0).String()))
		}

		var depthValue goja.Value = goja.Undefined()
		if depth != NoDepthLimit {
			depthValue = vm.ToValue(depth)
		}

		value, err := matchFiles(goja.Undefined(),
			vm.ToValue(path),
			optionalArray(vm, extensions),
			optionalArray(vm, excludes),
			optionalArray(vm, includes),
			vm.ToValue(useCaseSensitiveFileNames),
			vm.ToValue(currentDirectory),
			depthValue,
			vm.ToValue(getEntries),
			vm.ToValue(resolve),
		)
		if err != nil {
			panic(err)
		}
		return stringsOf(value)
	}
}

func isNullish(value goja.Value) bool {
	return value == nil || goja.IsUndefined(value) || goja.IsNull(value)
}

func stringsOf(value goja.Value) []string {
	if isNullish(value) {
		return nil
	}
	object, ok := value.(*goja.Object)
	if !ok {
		return nil
	}
	length := int(object.Get("length").ToInteger())
	result := make([]string, 0, length)
	for i := 0; i < length; i++ {
		result = append(result, elementString(object, i))
	}
	return result
}

func optionalArray(vm *goja.Runtime, values []string) goja.Value {
	if values == nil {
		return goja.Undefined()
	}
	return stringArray(vm, values)
}

func stringArray(vm *goja.Runtime, values []string) *goja.Object {
	items := make([]interface{}, len(values))
	for i, value := range values {
		items[i] = value
	}
	return vm.NewArray(items...)
}

func elementString(object *goja.Object, index int) string {
	value := object.Get(strconv.Itoa(index))
	if value == nil {
		return ""
	}
	return value.String()
}
