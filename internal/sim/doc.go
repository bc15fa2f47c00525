// Package sim runs a set of configured nodes on an in-process mesh.
//
// It is the shared runtime of mesh-node and mesh-gateway: each node gets a
// port on a mesh.Network, simulated or GPIO peripherals, an optional state
// file and an optional protocol capture.
package sim
