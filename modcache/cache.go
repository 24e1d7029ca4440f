package modcache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/refptr/errors"
	"github.com/wippyai/refptr/registry"
	"github.com/wippyai/refptr/shared"
	"github.com/wippyai/refptr/weakref"
)

// Config holds configuration for cache creation.
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// Pinned is the number of recently used modules kept compiled while no
	// caller holds them. 0 disables pinning.
	Pinned int

	// Registry counts module handles. nil uses a private registry.
	Registry *registry.Registry
}

// Cache compiles modules by name and shares them through counted handles.
type Cache struct {
	runtime wazero.Runtime
	reg     *registry.Registry
	log     *zap.Logger
	pinned  *lru.Cache

	mu      sync.Mutex
	modules map[string]weakref.Ptr[Module]
	closed  bool

	errMu    sync.Mutex
	closeErr error
}

// New creates a cache with its own wazero runtime.
func New(ctx context.Context, cfg *Config) (*Cache, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Pinned < 0 {
		return nil, errors.InvalidInput(errors.PhaseRegistry, fmt.Sprintf("pinned size %d", cfg.Pinned))
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	reg := cfg.Registry
	if reg == nil {
		reg = registry.New(registry.WithName("modcache"), registry.WithLogger(Logger()))
	}

	c := &Cache{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		reg:     reg,
		log:     Logger(),
		modules: make(map[string]weakref.Ptr[Module]),
	}

	if cfg.Pinned > 0 {
		pinned, err := lru.NewWithEvict(cfg.Pinned, func(_, value interface{}) {
			value.(*shared.Ptr[Module]).Reset()
		})
		if err != nil {
			c.runtime.Close(ctx)
			return nil, errors.Wrap(errors.PhaseRegistry, errors.KindInvalidInput, err, "create pin list")
		}
		c.pinned = pinned
	}

	return c, nil
}

// Get returns a handle to the module compiled from source under name,
// compiling it if no live handle to that name exists. source is ignored
// while the module is live.
func (c *Cache) Get(ctx context.Context, name string, source []byte) (shared.Ptr[Module], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return shared.New[Module](c.reg, nil), errors.Closed("modcache")
	}

	if w, ok := c.modules[name]; ok {
		p := w.Lock()
		if p.Valid() {
			c.pin(name, &p)
			return p.Move(), nil
		}
		delete(c.modules, name)
	}

	compiled, err := c.runtime.CompileModule(ctx, source)
	if err != nil {
		return shared.New[Module](c.reg, nil), errors.AllocationFailed("*modcache.Module", fmt.Errorf("compile %q: %w", name, err))
	}

	mod := &Module{name: name, compiled: compiled}
	p := shared.NewFunc(c.reg, mod, c.destroy)
	c.modules[name] = weakref.From(&p)
	c.pin(name, &p)

	c.log.Debug("module compiled", zap.String("name", name), zap.Int("exports", len(compiled.ExportedFunctions())))
	return p.Move(), nil
}

// Lookup returns a handle to a live module without compiling. The result
// is null when name is unknown or its module has been closed.
func (c *Cache) Lookup(name string) shared.Ptr[Module] {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.modules[name]
	if !ok {
		return shared.New[Module](c.reg, nil)
	}
	p := w.Lock()
	if p.Valid() {
		c.pin(name, &p)
	}
	return p.Move()
}

// Instantiate creates an anonymous instance of the module p targets.
func (c *Cache) Instantiate(ctx context.Context, p *shared.Ptr[Module]) (api.Module, error) {
	if !p.Valid() {
		return nil, errors.NilPointer(errors.PhaseAcquire, "*modcache.Module")
	}
	return c.runtime.InstantiateModule(ctx, p.Get().compiled, wazero.NewModuleConfig().WithName(""))
}

// Unpin drops the cache's own strong handle to name, if any. The module is
// closed now unless a caller still holds it.
func (c *Cache) Unpin(name string) {
	if c.pinned != nil {
		c.pinned.Remove(name)
	}
}

// Names returns the names of live modules in sorted order.
func (c *Cache) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.modules))
	for name, w := range c.modules {
		if !w.Expired() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Len returns the number of live modules.
func (c *Cache) Len() int {
	return len(c.Names())
}

// Pinned returns the number of pinned modules.
func (c *Cache) Pinned() int {
	if c.pinned == nil {
		return 0
	}
	return c.pinned.Len()
}

// Registry returns the registry module handles are counted in.
func (c *Cache) Registry() *registry.Registry {
	return c.reg
}

// Close unpins every module and closes the runtime. Modules still held by
// callers are reported as leaked; errors from closing modules are
// combined into the result.
func (c *Cache) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.pinned != nil {
		c.pinned.Purge()
	}

	c.mu.Lock()
	var held int
	for name, w := range c.modules {
		if !w.Expired() {
			held++
			c.log.Warn("module held at close", zap.String("name", name), zap.Uint32("handles", w.UseCount()))
		}
	}
	c.modules = nil
	c.mu.Unlock()

	c.errMu.Lock()
	err := c.closeErr
	c.closeErr = nil
	c.errMu.Unlock()

	if held > 0 {
		err = multierr.Append(err, errors.Leaked("modcache", held))
	}
	return multierr.Append(err, c.runtime.Close(ctx))
}

// pin records p as recently used. Called with c.mu held.
func (c *Cache) pin(name string, p *shared.Ptr[Module]) {
	if c.pinned == nil {
		return
	}
	if _, ok := c.pinned.Get(name); ok {
		return
	}
	clone := p.Clone()
	c.pinned.Add(name, &clone)
}

// destroy runs once the last handle to mod is gone. It may run while c.mu
// is held, so it must not take it.
func (c *Cache) destroy(mod *Module) {
	if err := mod.close(context.Background()); err != nil {
		c.log.Error("close module", zap.String("name", mod.name), zap.Error(err))
		c.errMu.Lock()
		c.closeErr = multierr.Append(c.closeErr, err)
		c.errMu.Unlock()
		return
	}
	c.log.Debug("module closed", zap.String("name", mod.name))
}
