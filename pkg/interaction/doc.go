// Package interaction routes inbound access messages to model handlers and
// decides where Status messages go.
//
// # Dispatch
//
// Each model registers its opcodes once, with the minimum parameter length
// the handler needs:
//
//	d.Register(0, wire.OpOnOffSet, 2, srv.handleSet)
//
// Messages shorter than the minimum are dropped before the handler runs.
// Opcodes nobody registered are ignored; they belong to someone else's
// model.
//
// # Replies and Publications
//
// The requester of a Get or acknowledged Set is carried by value in the
// Request, so concurrent requests never overwrite each other's reply
// target. The Resolver always answers a requester with a unicast reply and
// additionally publishes on a state change when the model publication is
// configured.
package interaction
