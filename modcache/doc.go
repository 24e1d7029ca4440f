// Package modcache shares compiled WebAssembly modules between callers.
//
// A Cache compiles each named module once with wazero and hands out
// shared.Ptr handles to it. The cache itself only keeps weak handles, so a
// module is closed as soon as its last user resets their handle. Recently
// used modules can additionally be pinned with an LRU of strong handles,
// which keeps them compiled across short idle periods:
//
//	cache, err := modcache.New(ctx, &modcache.Config{Pinned: 8})
//	if err != nil {
//	    return err
//	}
//	defer cache.Close(ctx)
//
//	mod, err := cache.Get(ctx, "echo", wasmBytes)
//	if err != nil {
//	    return err
//	}
//	defer mod.Reset()
//
//	inst, err := cache.Instantiate(ctx, &mod)
package modcache
