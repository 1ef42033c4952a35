// Package trigger holds the trigger registry and the context a firing runs
// in.
//
// A Trigger pairs an Event with an opaque Body and belongs to exactly one
// script. The Registry indexes triggers by script and by the context types
// their event handles. Registry.Dispatch is the single path through which
// a context fires: it runs every matching trigger in order and always
// releases the context's local variables afterwards.
//
// Ordering: scripts are visited in sorted name order, triggers of one script
// in insertion order. The first trigger registered fires first.
package trigger
