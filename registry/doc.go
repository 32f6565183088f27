// Package registry memoizes provider adapters.
//
// A Registry hands out one provider.Provider per (kind, endpoint) pair and
// keeps it for the lifetime of the registry, so metrics accumulate across
// requests. Registries are explicit values; construct one per process (or per
// test) and pass it to the router.
//
// Example:
//
//	reg := registry.New()
//	p, err := reg.Get(core.ProviderClaude, cfg)
package registry
