package mesh

import (
	"context"
	"errors"

	"github.com/lucamoroz/mesh-go/pkg/model"
)

// Transport errors.
var (
	// ErrUnassignedAddress is returned when a message has no destination,
	// typically because a model publication is not configured.
	ErrUnassignedAddress = errors.New("unassigned destination address")

	// ErrClosed is returned by a closed port.
	ErrClosed = errors.New("transport closed")
)

// SendContext addresses a unicast message.
type SendContext struct {
	NetIdx uint16
	AppIdx uint16
	Src    model.Address
	Dst    model.Address
	TTL    uint8
}

// Transport sends access messages on behalf of a node. Errors are returned
// synchronously and are never retried by the caller.
type Transport interface {
	// Send delivers an access message to a single destination.
	Send(ctx context.Context, sc SendContext, access []byte) error

	// Publish sends an access message through a model publication.
	// An unconfigured publication returns ErrUnassignedAddress.
	Publish(ctx context.Context, src model.Address, pub model.Publication, access []byte) error
}

// Delivery is an access message as seen by a receiving node.
type Delivery struct {
	NetIdx uint16
	AppIdx uint16
	Src    model.Address
	Dst    model.Address
	TTL    uint8
	Access []byte
}

// Receiver handles deliveries for one port.
type Receiver func(ctx context.Context, d Delivery)
