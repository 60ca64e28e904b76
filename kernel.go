package minicjs

import (
	"encoding/json"
	"fmt"

	"github.com/apex/log"
	"github.com/dop251/goja"
	"github.com/go-errors/errors"
	"github.com/satori/go.uuid"

	"github.com/relationsone/minicjs/host"
	"github.com/relationsone/minicjs/jssystem"
	"github.com/relationsone/minicjs/kmodules"
)

const (
	DefaultManifestFile = "manifest.json"
	DefaultMain         = "tsc.js"
	DefaultSystem       = "jssystem"

	rootModulePath = "kernel.js"
	hostModuleName = "jshost"
	logModuleName  = "jslog"
	notAvailable   = "n/a"
)

// Manifest describes the content of a store. It is read from the store
// itself when the kernel is created.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Main        string   `json:"main"`
	System      string   `json:"system"`
	Paths       []string `json:"paths"`
}

type KernelConfig struct {
	// Host provides the primitive file and process operations.
	Host host.Host
	// Store provides the internal modules and the manifest.
	Store *Store
	// ManifestFile is the manifest location inside the store, defaults to
	// DefaultManifestFile.
	ManifestFile string
	// SearchPaths are appended to the search paths of the manifest.
	SearchPaths []string
	// Runtime is used instead of a fresh goja runtime when set.
	Runtime *goja.Runtime
}

/**
 * The kernel boots a script from the store. It owns the root module, whose
 * cache carries the host primitives ("jshost"), the script logger ("jslog")
 * and the filesystem adapter factory ("jssystem"), and the "ts" namespace
 * injected into every module.
 */
type Kernel struct {
	id           string
	vm           *goja.Runtime
	manifestFile string
	host         *internalHost
	store        *Store
	manifest     Manifest
	loader       *Loader
	paths        []string
	root         *Module
	system       *systemSlot
}

func NewKernel(config KernelConfig) (*Kernel, error) {
	if config.Host == nil {
		return nil, errors.Wrap(&UsageError{Op: "kernel", Reason: "host is required"}, 1)
	}
	if config.Store == nil {
		return nil, errors.Wrap(&UsageError{Op: "kernel", Reason: "store is required"}, 1)
	}

	manifestFile := config.ManifestFile
	if manifestFile == "" {
		manifestFile = DefaultManifestFile
	}
	manifest, err := readManifest(config.Store, manifestFile)
	if err != nil {
		return nil, err
	}

	vm := config.Runtime
	if vm == nil {
		vm = goja.New()
	}

	paths := make([]string, 0, len(manifest.Paths)+len(config.SearchPaths))
	paths = append(paths, manifest.Paths...)
	paths = append(paths, config.SearchPaths...)

	kernel := &Kernel{
		id:           uuid.NewV4().String(),
		vm:           vm,
		manifestFile: manifestFile,
		host:         &internalHost{Host: config.Host, store: config.Store, vm: vm},
		store:        config.Store,
		manifest:     manifest,
		loader:       NewLoader(vm, config.Store),
		paths:        paths,
		system:       &systemSlot{},
	}
	log.Infof("Kernel: Created kernel %s for %s", kernel.id, kernel.HostAbout())
	return kernel, nil
}

func readManifest(store *Store, filename string) (Manifest, error) {
	var manifest Manifest
	if !store.Exists(filename) {
		return manifest, errors.Wrap(&ManifestError{File: filename, Reason: "not found in store"}, 1)
	}
	content, err := store.ReadFile(filename)
	if err != nil {
		return manifest, err
	}
	if err := json.Unmarshal([]byte(content), &manifest); err != nil {
		return manifest, errors.Wrap(&ManifestError{File: filename, Reason: err.Error()}, 1)
	}
	if manifest.Main == "" {
		manifest.Main = DefaultMain
	}
	if manifest.System == "" {
		manifest.System = DefaultSystem
	}
	return manifest, nil
}

func (k *Kernel) ID() string {
	return k.id
}

func (k *Kernel) Manifest() Manifest {
	return k.manifest
}

func (k *Kernel) Runtime() *goja.Runtime {
	return k.vm
}

func (k *Kernel) Loader() *Loader {
	return k.loader
}

// RootModule returns the module the kernel boots from; nil before Start.
func (k *Kernel) RootModule() *Module {
	return k.root
}

// HostVersion is the manifest version, "n/a" when the manifest has none.
func (k *Kernel) HostVersion() string {
	return orNotAvailable(k.manifest.Version)
}

// HostAbout is "<name> <version>" followed by the description on a second
// line.
func (k *Kernel) HostAbout() string {
	return fmt.Sprintf("%s %s\n%s", orNotAvailable(k.manifest.Name), k.HostVersion(),
		orNotAvailable(k.manifest.Description))
}

// Start sets up the root module, loads the filesystem adapter named by the
// manifest and runs the main script. A script terminating through exit
// results in an *ExitError carrying its status.
func (k *Kernel) Start() error {
	if k.root != nil {
		return errors.Wrap(&UsageError{Op: "start", Reason: "kernel already started"}, 1)
	}
	defer k.vm.ClearInterrupt()

	scope, err := k.commonScope()
	if err != nil {
		return err
	}

	cache := NewCache()
	k.root = k.loader.NewModule(rootModulePath, ModuleOptions{
		Cache: cache,
		Scope: scope,
		Paths: k.paths,
	})
	cache.Set(hostModuleName, k.loader.NewModule(hostModuleName, ModuleOptions{
		Exports: kmodules.NewHostModule(k.vm, k.host),
		Loaded:  true,
		Cache:   cache,
		Private: true,
		Scope:   scope,
	}))
	cache.Set(logModuleName, k.loader.NewModule(logModuleName, ModuleOptions{
		Exports: kmodules.NewLoggerModule(k.vm),
		Loaded:  true,
		Cache:   cache,
		Scope:   scope,
	}))
	cache.Set(DefaultSystem, k.loader.NewModule(DefaultSystem, ModuleOptions{
		Exports: k.vm.ToValue(jssystem.NewFactory(k.vm, k.host)),
		Loaded:  true,
		Cache:   cache,
		Scope:   scope,
	}))

	log.Debugf("Kernel: Loading filesystem adapter %s", k.manifest.System)
	factory, err := k.root.Require(k.manifest.System)
	if err != nil {
		return k.exitError(err)
	}
	callable, ok := goja.AssertFunction(factory)
	if !ok {
		return errors.Wrap(&ManifestError{File: k.manifestFile,
			Reason: fmt.Sprintf("system module '%s' does not export a function", k.manifest.System)}, 1)
	}
	k.system.factory = callable

	main := k.manifest.Main
	if !isRelativeSpecifier(main) {
		main = "./" + main
	}
	log.Infof("Kernel: Starting %s", main)
	if _, err := k.root.Require(main); err != nil {
		return k.exitError(err)
	}
	return k.exitError(nil)
}

// exitError turns an interrupted runtime, or an exit requested by the last
// statement of a script, into an *ExitError.
func (k *Kernel) exitError(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if exit, ok := interrupted.Value().(*ExitError); ok {
			return errors.Wrap(exit, 1)
		}
		return err
	}
	if err == nil && k.host.exited {
		return errors.Wrap(&ExitError{Code: k.host.exitCode}, 1)
	}
	return err
}

// commonScope is injected into every module: console.log, process.argv and
// the "ts" namespace the adapter is attached to.
func (k *Kernel) commonScope() (Scope, error) {
	vm := k.vm

	console := vm.NewObject()
	console.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]interface{}, len(call.Arguments))
		for i, argument := range call.Arguments {
			parts[i] = argument.String()
		}
		k.host.Print(fmt.Sprintln(parts...))
		return goja.Undefined()
	})

	process := vm.NewObject()
	process.Set("argv", stringArray(vm, k.host.ScriptArgs()))

	ts := vm.NewObject()
	k.system.ts = ts
	ts.DefineAccessorProperty("sys",
		vm.ToValue(k.system.get),
		vm.ToValue(func(call goja.FunctionCall) goja.Value {
			k.system.initialize(vm, k.loader)
			return goja.Undefined()
		}),
		goja.FLAG_FALSE, goja.FLAG_TRUE)

	return NewScope(map[string]interface{}{
		"console": console,
		"process": process,
		"ts":      ts,
	})
}

// systemSlot is the lazily created "ts.sys" value. Any assignment creates
// it once from the adapter factory and the namespace; the assigned value
// itself is ignored.
type systemSlot struct {
	factory goja.Callable
	ts      *goja.Object
	value   goja.Value
}

func (s *systemSlot) get(goja.FunctionCall) goja.Value {
	if s.value == nil {
		return goja.Undefined()
	}
	return s.value
}

func (s *systemSlot) initialize(vm *goja.Runtime, loader *Loader) {
	if s.value != nil {
		return
	}
	if s.factory == nil {
		panic(vm.NewTypeError("filesystem adapter is not loaded yet"))
	}
	log.Debug("Kernel: Creating filesystem adapter")
	value, err := s.factory(goja.Undefined(), s.ts)
	if err != nil {
		loader.rethrow(err)
		return
	}
	s.value = value
}

func orNotAvailable(value string) string {
	if value == "" {
		return notAvailable
	}
	return value
}
