// Package variables implements the variable store.
//
// There are two disjoint scopes. The global scope is one map for the
// whole process, optionally persisted through storage backends. The local
// scope is one map per trigger context, created on first write and dropped
// when the firing completes. A leading "_" marks a local name; ParseName
// strips it and the scope is decided once, when the reference is resolved.
//
// List variables use "::" to build a key path. "scores::alice" is an entry
// of the list "scores::*", and reading "scores::*" returns every direct
// child of "scores".
//
// Global writes update memory immediately. When backends are loaded each
// write is also queued as a Change and flushed to every accepting backend in
// enqueue order by at most one flusher at a time.
package variables
