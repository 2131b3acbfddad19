// Package symbols models compiled binary dependencies inside the compiler's
// symbol table: one AssemblySymbol per loaded assembly, aggregating its
// ModuleSymbols, plus the resolver that follows type-forwarding chains
// across assembly boundaries.
//
// AssemblySymbols are shared, read-mostly structures. After construction the
// only writers are the lazy-fact memoization paths (monotonic, race-safe via
// per-field compare-and-swap) and the reference manager's one-time setters.
// No cross-field locking exists because the fields are independent.
//
// Forward resolution tolerates multi-hop chains (A forwards T to B, B to C)
// and terminates on two malformed shapes, surfacing each as an error-type
// symbol rather than an exception: a module forwarding one name to two
// different targets, and a chain that revisits an assembly. Cycle detection
// rides an immutable cons-list visited chain, so concurrent resolutions
// share nothing mutable.
package symbols
