// Package mesh defines the collaborators the node core sends through and an
// in-memory substrate that connects nodes for tests and simulation.
//
// The substrate models what the node core can observe of a real mesh:
// unicast delivery to the element owning an address, group delivery to
// subscribers, and the fixed all-nodes group. It does not model bearers,
// relaying, segmentation or security.
//
// Every delivery to one port runs on that port's inbox goroutine, so a node
// never processes two messages at once.
package mesh
