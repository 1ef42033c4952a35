// Package config loads the runtime configuration file.
//
// Two formats are accepted, chosen by file extension: YAML (.yaml, .yml)
// and CUE (.cue, or a directory of .cue files). CUE input is unified with
// an embedded schema before it is read, so structural mistakes are
// reported with CUE positions.
//
// Example (YAML):
//
//	variables:
//	  databases:
//	    main:
//	      enabled: true
//	      type: sqlite
//	      file: variables.db
//	      pattern: "^(?!_).*"
//
// Database sections keep file order; the variable store loads them in that
// order.
package config
