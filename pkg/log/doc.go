// Package log provides protocol capture for mesh nodes.
//
// Capture is separate from operational logging (slog): it records every
// access message a node receives or sends, every model state change, and
// every dropped message as a machine-readable Event.
//
// # Basic Usage
//
//	// Console only
//	capture := log.NewCapture(log.NewSlogAdapter(slog.Default()), "light")
//
//	// Console and capture file
//	fl, _ := log.NewFileLogger("/var/log/mesh/light.mlog")
//	capture := log.NewCapture(log.NewMultiLogger(log.NewSlogAdapter(logger), fl), "light")
//
// # File Format
//
// Capture files are a concatenation of CBOR encoded events with integer
// keys, conventionally named *.mlog. The mesh-log tool views and summarises
// them.
package log
