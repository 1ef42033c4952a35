// Package runtime assembles the execution core: the type graph, the
// variable store, the trigger registry and the scheduler.
//
// Nothing here is global. A Runtime is constructed explicitly, owns every
// component it builds, and is torn down with Close. Components can be
// injected with options; the defaults are a fresh built-in type graph and
// the bundled storage backends.
package runtime
