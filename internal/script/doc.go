// Package script loads trigger scripts written as YAML manifests whose
// trigger bodies are Risor code.
//
//	name: greeter
//	functions:
//	  shout: 'func(s) { return strings.to_upper(s) + "!" }'
//	triggers:
//	  - event: load
//	    code: set("greeting", shout("hello"))
//	  - event: every 5 seconds
//	    code: |
//	      n := get("count")
//	      if n == nil { n = 0 }
//	      set("count", n + 1)
//
// Events are "load" (or "on load"), "every <duration>" and "at <time>".
// Bodies see the builtins get, set, delete, convert, compare and print plus
// a ctx map describing the firing. Variable names starting with "_" are
// local to the firing.
package script
