// Package work runs deferred units of work off the caller's goroutine.
//
// A Worker executes at most one item at a time and holds at most one item
// in flight: Submit while an item is pending or running drops the new item
// and returns false. Nothing is queued, so a busy node skips work rather
// than building a backlog.
//
// Timers never run work themselves. Periodic and After only submit to a
// Worker when they fire.
package work
