// Package persistence stores the runtime state of a mesh node.
//
// The provisioned address, model publications and the last on/off and
// colour state are written to a JSON file so a restarted node comes back
// with the configuration it had.
package persistence
