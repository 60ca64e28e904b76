package minicjs

import (
	"github.com/apex/log"
	"github.com/dop251/goja"

	"github.com/relationsone/minicjs/host"
)

// internalHost reads from the internal store first, so scripts see bundled
// files through the same primitives as files on the host. Exit also
// interrupts the runtime so no further script code runs.
type internalHost struct {
	host.Host
	store *Store
	vm    *goja.Runtime

	exited   bool
	exitCode int
}

func (h *internalHost) Exit(code int) {
	log.Debugf("Kernel: Script requested exit with status %d", code)
	h.exited = true
	h.exitCode = code
	h.Host.Exit(code)
	h.vm.Interrupt(&ExitError{Code: code})
}

func (h *internalHost) ReadFile(path string) (string, error) {
	if h.store.Exists(path) {
		return h.store.ReadFile(path)
	}
	return h.Host.ReadFile(path)
}

func (h *internalHost) Exists(path string, dir bool) bool {
	if !dir && h.store.Exists(path) {
		return true
	}
	return h.Host.Exists(path, dir)
}
