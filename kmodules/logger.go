package kmodules

import (
	"fmt"

	"github.com/apex/log"
	"github.com/dop251/goja"
)

// NewLoggerModule builds the exports of the "jslog" module. Every function
// takes a message, formatted printf style when more arguments follow, and
// logs it with the script position of the caller.
func NewLoggerModule(vm *goja.Runtime) *goja.Object {
	exports := vm.NewObject()

	define := func(name string, logf func(string, ...interface{})) {
		exports.Set(name, func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 1 {
				panic(vm.NewTypeError(name + " called without arguments"))
			}

			msg := call.Argument(0).String()
			if len(call.Arguments) > 1 {
				args := make([]interface{}, len(call.Arguments)-1)
				for i := 1; i < len(call.Arguments); i++ {
					args[i-1] = call.Argument(i).Export()
				}
				msg = fmt.Sprintf(msg, args...)
			}

			logf("%s: %s", callerPosition(vm), msg)
			return goja.Undefined()
		})
	}

	define("debug", log.Debugf)
	define("info", log.Infof)
	define("warn", log.Warnf)
	define("error", log.Errorf)

	return exports
}

// callerPosition names the innermost script frame as source#function[line:column].
func callerPosition(vm *goja.Runtime) string {
	for _, frame := range vm.CaptureCallStack(0, nil) {
		pos := frame.Position()
		if pos.Line == 0 {
			continue
		}
		return fmt.Sprintf("%s#%s[%d:%d]", frame.SrcName(), frame.FuncName(), pos.Line, pos.Column)
	}
	return "<native>"
}
