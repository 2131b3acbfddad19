// Package diag defines the diagnostic model shared by the metadata layers.
//
// Diagnostic is the central record: a Severity, a compact numeric Code with a
// stable string form (codes.go), a short message, and an Origin naming the
// assembly (and optionally the module) the finding belongs to. Binary
// metadata has no source spans, so origins are symbolic.
//
// Producers emit through a Reporter so storage stays decoupled; BagReporter
// aggregates into a Bag, which supports capping, sorting and deduplication.
// Rendering lives in internal/diagfmt; orchestration in internal/driver.
//
// Keep the data model deterministic and side-effect free so results can be
// cached and compared in tests.
package diag
