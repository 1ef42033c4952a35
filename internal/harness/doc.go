// Package harness runs trigger scripts against a fake clock and checks the
// outcome.
//
// A scenario loads scripts, seeds global variables and then walks a list of
// steps. Each step either advances the clock, sets variables, or loads or
// unloads a script. After every step the harness waits until the scheduler
// has dispatched everything that became due, so a scenario replays the same
// way on every run.
//
// Every body execution, print line and step is recorded in a trace. Within
// one step, firings are ordered by script and event and output lines are
// sorted, because periodical bodies that fall due together run
// concurrently. Traces can be compared against golden files:
//
//	name: counter-ticks
//	description: a periodical trigger counts its ticks
//	inline:
//	  - name: counter
//	    triggers:
//	      - event: every 5 seconds
//	        code: |
//	          n := get("count")
//	          set("count", n + 1)
//	variables:
//	  count: 0
//	steps:
//	  - advance: 5s
//	  - advance: 10s
//	assertions:
//	  - type: variable
//	    name: count
//	    equals: 2
//	  - type: fires
//	    script: counter
//	    count: 2
//
// Advancing by more than one interval fires a periodical event once; missed
// periods are skipped, as in a live run.
package harness
