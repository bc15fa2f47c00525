// Package model implements the mesh node data model.
//
// # Node Hierarchy
//
// A node is composed the same way on every role:
//
//	Composition > Element > Model
//
// An Element owns one unicast address. Elements contain Models, each
// identified by a SIG model id. A model carries its publication settings
// and, for server models, the state it exposes (OnOffState, HSLState).
//
//	Composition (sensor node)
//	├── Element 0 (primary address)
//	│   ├── Configuration Server
//	│   ├── Health Server
//	│   ├── Generic OnOff Server
//	│   └── Sensor Server (temperature, humidity, pressure)
//	└── Element 1 (primary + 1)
//	    └── Sensor Server (gas)
//
// # Addressing
//
// Models are addressed by the tuple (element address, model id).
//
// # State Updates
//
// Server state changes only through TrySet. TrySet compares the incoming
// value with the stored one and reports Unchanged when they are equal, so
// repeated Sets never produce side effects.
package model
