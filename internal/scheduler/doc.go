// Package scheduler arms the start-on-load events: script load, periodical
// and at-time.
//
// A Scheduler owns a root context and every timing goroutine it starts.
// Arming returns a trigger.Handle; the trigger registry tracks those handles
// per script and cancels them before it removes the script's triggers.
//
// Timing policy:
//   - ScriptLoad dispatches synchronously inside Arm.
//   - Periodical fires at a fixed rate, first one interval after arming.
//     Firings are not serialized: each one dispatches on its own goroutine,
//     so a slow body can overlap the next firing. Missed periods are skipped.
//   - AtTime waits InitialDelay, then repeats every 24 hours of elapsed time.
//     Daylight saving changes shift the wall-clock firing time by the offset.
package scheduler
