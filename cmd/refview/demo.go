package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wippyai/refptr/intrusive"
	"github.com/wippyai/refptr/modcache"
	"github.com/wippyai/refptr/registry"
	"github.com/wippyai/refptr/shared"
	"github.com/wippyai/refptr/weakref"
)

type counterObject struct {
	intrusive.Base
	value int
}

type pair struct {
	key   string
	value int
}

// runDemo walks through both handle families and writes what happens to w.
func runDemo(w io.Writer, reg *registry.Registry) error {
	fmt.Fprintln(w, "intrusive:")
	c := intrusive.Make(func(o *counterObject) { o.value = 7 })
	fmt.Fprintf(w, "  value %d\n", c.Deref().value)

	d := c.Clone()
	n, _ := d.UseCount()
	fmt.Fprintf(w, "  after clone: count %d\n", n)

	iw := intrusive.NewWeak(&c)
	c.Reset()
	d.Reset()
	fmt.Fprintf(w, "  after reset: expired %t\n", iw.Expired())

	fmt.Fprintln(w, "shared:")
	a := shared.Make(reg, func(p *pair) { p.key, p.value = "answer", 42 })
	fmt.Fprintf(w, "  %s = %d\n", a.Deref().key, a.Deref().value)

	b := a.Clone()
	weak := weakref.From(&a)
	a.Reset()
	fmt.Fprintf(w, "  after dropping a: count %d, expired %t\n", weak.UseCount(), weak.Expired())

	locked := weak.Lock()
	fmt.Fprintf(w, "  locked: count %d\n", locked.UseCount())

	b.Reset()
	locked.Reset()
	fmt.Fprintf(w, "  after dropping b and lock: expired %t\n", weak.Expired())

	again := weak.Lock()
	fmt.Fprintf(w, "  lock after expiry: valid %t\n", again.Valid())

	s := reg.Stats()
	fmt.Fprintf(w, "registry %s: live %d, created %d, destroyed %d, upgrades %d, failed %d\n",
		reg.Name(), s.Live, s.Created, s.Destroyed, s.Upgrades, s.FailedUpgrades)
	return nil
}

// runModules compiles path through a module cache twice and reports how the
// second user shares the first one's compilation.
func runModules(ctx context.Context, w io.Writer, reg *registry.Registry, path string, pinned int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	cache, err := modcache.New(ctx, &modcache.Config{Pinned: pinned, Registry: reg})
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}

	first, err := cache.Get(ctx, path, data)
	if err != nil {
		cache.Close(ctx)
		return fmt.Errorf("compile: %w", err)
	}
	second, err := cache.Get(ctx, path, nil)
	if err != nil {
		first.Reset()
		cache.Close(ctx)
		return fmt.Errorf("lookup: %w", err)
	}

	fmt.Fprintf(w, "module %s\n", first.Get().Name())
	fmt.Fprintf(w, "  exports: %v\n", first.Get().Exports())
	fmt.Fprintf(w, "  shared: %t, count %d, pinned %d\n", first.Equal(&second), first.UseCount(), cache.Pinned())

	first.Reset()
	second.Reset()
	return cache.Close(ctx)
}
