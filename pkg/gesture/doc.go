// Package gesture turns raw button edges into click gestures.
//
// Edge is the interrupt path: it only takes a timestamp, applies the
// debounce window and, on release, submits the classified click to a
// work.Worker. The click callback runs on the worker. While a click is
// being handled every new click is dropped, not queued.
package gesture
