// Package types holds the runtime type system for tempo scripts.
//
// A Registry owns one Type descriptor per runtime type (literal parsing,
// rendering, serialization, arithmetic, enumeration). On top of it sit three
// edge tables:
//   - Converters: typed conversion edges with chaining flags
//   - Comparators: relation functions for pairs of types
//   - Ranges: generators for "1 to 10" style enumerations
//
// Graph bundles all four. It is the surface the expression layer uses:
// Convert, Compare, Range and Arithmetic.
//
// Every table is an explicitly constructed value. There are no package-level
// registries, so tests build isolated instances.
//
// Types are identified by TypeID (the base name, e.g. "integer"). Go values
// are mapped to a TypeID through each descriptor's Match predicate; later
// registrations are checked first so specific types win over "object".
package types
