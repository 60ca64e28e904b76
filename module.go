package minicjs

import (
	"github.com/apex/log"
	"github.com/dop251/goja"
	"github.com/go-errors/errors"
	"github.com/satori/go.uuid"
)

// Module is a CommonJS module record. It owns the exported value of one
// loaded file and resolves the specifiers passed to its require function.
type Module struct {
	id          string
	path        string
	dirpath     string
	exports     goja.Value
	loaded      bool
	cache       *Cache
	private     bool
	loadPrivate bool
	scope       Scope
	paths       []string

	loader *Loader
	object *goja.Object
}

// NewModule creates a module record for path. Missing options take the
// defaults documented on ModuleOptions.
func (l *Loader) NewModule(path string, options ModuleOptions) *Module {
	cache := options.Cache
	if cache == nil {
		cache = NewCache()
	}

	exports := options.Exports
	if exports == nil {
		exports = l.vm.NewObject()
	}

	paths := make([]string, len(options.Paths))
	copy(paths, options.Paths)

	module := &Module{
		id:          uuid.NewV4().String(),
		path:        path,
		dirpath:     dirPath(path),
		exports:     exports,
		loaded:      options.Loaded,
		cache:       cache,
		private:     options.Private,
		loadPrivate: !options.DenyPrivate,
		scope:       options.Scope.clone(),
		paths:       paths,
		loader:      l,
	}
	module.object = l.newModuleObject(module)
	return module
}

func (m *Module) ID() string {
	return m.id
}

func (m *Module) Path() string {
	return m.path
}

func (m *Module) Dirpath() string {
	return m.dirpath
}

func (m *Module) Exports() goja.Value {
	return m.exports
}

func (m *Module) Loaded() bool {
	return m.loaded
}

func (m *Module) Private() bool {
	return m.private
}

func (m *Module) LoadPrivate() bool {
	return m.loadPrivate
}

func (m *Module) Cache() *Cache {
	return m.cache
}

func (m *Module) Scope() Scope {
	return m.scope
}

func (m *Module) Paths() []string {
	paths := make([]string, len(m.paths))
	copy(paths, m.paths)
	return paths
}

// Object returns the script-side module object bound as "module" in the
// module body.
func (m *Module) Object() *goja.Object {
	return m.object
}

// Require loads the module named by specifier and returns its exports.
//
// Relative specifiers ("./", "../") resolve against the module directory and
// are cached under the resolved path. Bare specifiers are looked up in the
// cache under the raw specifier, then searched as "<dir>/<specifier>.js" in
// every search path, in order.
func (m *Module) Require(specifier string) (goja.Value, error) {
	if m == nil {
		return nil, errors.Wrap(&UsageError{Op: "require", Reason: "invalid receiver"}, 1)
	}
	if specifier == "" {
		return nil, errors.Wrap(&UsageError{Op: "require", Reason: "expected valid path argument"}, 1)
	}

	relative := isRelativeSpecifier(specifier)
	candidates := make([]string, 0, len(m.paths)+1)
	if relative {
		resolved := resolvePath(m.dirpath, specifier)
		if exports, ok, err := m.requireFromCache(resolved); ok || err != nil {
			return exports, err
		}
		candidates = append(candidates, resolved)
	} else {
		if exports, ok, err := m.requireFromCache(specifier); ok || err != nil {
			return exports, err
		}
		name := specifier + ".js"
		for _, searchDir := range m.paths {
			candidates = append(candidates, joinPaths(searchDir, name))
		}
	}

	for _, candidate := range candidates {
		module, err := m.tryRequireNewModule(candidate)
		if err != nil {
			return nil, err
		}
		if module == nil {
			continue
		}

		key := specifier
		if relative {
			key = candidate
		}
		m.cache.Set(key, module)
		log.Debugf("Loader: Resolved %s from %s to %s [cached as %s]", specifier, m.path, candidate, key)
		return module.exports, nil
	}

	return nil, errors.Wrap(&ModuleNotFoundError{Specifier: specifier, Tried: candidates}, 1)
}

// Resolve resolves specifier against the module directory without touching
// the cache or the store.
func (m *Module) Resolve(specifier string) (string, error) {
	if m == nil {
		return "", errors.Wrap(&UsageError{Op: "resolve", Reason: "invalid receiver"}, 1)
	}
	if specifier == "" {
		return "", errors.Wrap(&UsageError{Op: "resolve", Reason: "expected valid path argument"}, 1)
	}
	return resolvePath(m.dirpath, specifier), nil
}

func (m *Module) requireFromCache(key string) (goja.Value, bool, error) {
	cached, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	if cached.private && !m.loadPrivate {
		return nil, false, errors.Wrap(&VisibilityError{Requester: m.path, Target: key}, 1)
	}
	log.Debugf("Loader: Reused cached module %s [id %s] for %s", key, cached.id, m.path)
	return cached.exports, true, nil
}

// tryRequireNewModule loads path from the internal store. Paths the store
// does not know yield no module and no error.
func (m *Module) tryRequireNewModule(path string) (*Module, error) {
	store := m.loader.store
	if !store.Exists(path) {
		log.Debugf("Loader: Skipping %s, not an internal module", path)
		return nil, nil
	}

	module := m.loader.NewModule(path, ModuleOptions{
		Cache:       m.cache,
		Private:     m.private,
		DenyPrivate: !m.loadPrivate,
		Scope:       m.scope,
		Paths:       m.paths,
	})

	source, err := store.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if isDataModule(path) {
		if source == "" {
			return nil, nil
		}
		exports, err := m.loader.parseJSON(source)
		if err != nil {
			return nil, err
		}
		module.exports = exports
		module.loaded = true
		return module, nil
	}

	if err := m.cache.enter(path); err != nil {
		return nil, err
	}
	defer m.cache.leave(path)

	bindings := newBindingList()
	bindings.bind("exports", module.exports)
	bindings.bind("module", module.object)
	bindings.bind("require", module.boundRequire())
	bindings.bind("__filename", module.path)
	bindings.bind("__dirname", module.dirpath)
	for _, name := range module.scope.Names() {
		value, _ := module.scope.Get(name)
		bindings.bind(name, value)
	}

	unit, err := m.loader.compileUnit(path, source, bindings)
	if err != nil {
		return nil, err
	}
	if err := unit(); err != nil {
		return nil, err
	}

	module.loaded = true
	return module, nil
}

func (l *Loader) parseJSON(source string) (goja.Value, error) {
	json := l.vm.Get("JSON").ToObject(l.vm)
	parse, ok := goja.AssertFunction(json.Get("parse"))
	if !ok {
		return nil, errors.New("JSON.parse is not callable")
	}
	return parse(json, l.vm.ToValue(source))
}
