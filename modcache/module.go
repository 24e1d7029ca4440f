package modcache

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/atomic"
)

// Module is a compiled module owned by the handles a Cache returns.
type Module struct {
	name     string
	compiled wazero.CompiledModule
	closed   atomic.Bool
}

// Name returns the cache key the module was compiled under.
func (m *Module) Name() string {
	return m.name
}

// Compiled returns the underlying wazero module. It must not be used after
// the last handle to m is released.
func (m *Module) Compiled() wazero.CompiledModule {
	return m.compiled
}

// Closed reports whether the compiled module has been released.
func (m *Module) Closed() bool {
	return m.closed.Load()
}

// Exports lists the names of the module's exported functions.
func (m *Module) Exports() []string {
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	return names
}

// ImportedFunctions returns the module's function imports.
func (m *Module) ImportedFunctions() []api.FunctionDefinition {
	return m.compiled.ImportedFunctions()
}

func (m *Module) close(ctx context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := m.compiled.Close(ctx); err != nil {
		return fmt.Errorf("close module %q: %w", m.name, err)
	}
	return nil
}
