package interaction

import (
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// MessageContext describes how an access message arrived.
type MessageContext struct {
	NetIdx uint16
	AppIdx uint16

	// Src is the element that sent the message.
	Src model.Address

	// Dst is the destination the sender used. It may be a group address.
	Dst model.Address

	RecvTTL uint8
}

// Requester returns the reply target for this message.
func (mc MessageContext) Requester() Requester {
	return Requester{NetIdx: mc.NetIdx, AppIdx: mc.AppIdx, Addr: mc.Src}
}

// Requester is the target of a unicast reply.
type Requester struct {
	NetIdx uint16
	AppIdx uint16
	Addr   model.Address
}

// Request is one access message handed to a handler.
type Request struct {
	Opcode  wire.Opcode
	Payload []byte
	Msg     MessageContext

	// Element is the address of the element the handler is registered on.
	Element model.Address
}

// Requester is shorthand for req.Msg.Requester().
func (r Request) Requester() Requester {
	return r.Msg.Requester()
}
