package log

import (
	"time"

	"github.com/google/uuid"
)

// Capture stamps events with the identity of one node and forwards them to a
// Logger. A nil *Capture or a Capture without a Logger drops everything, so
// components can hold one unconditionally.
type Capture struct {
	Logger    Logger
	SessionID string
	Role      string

	// Address returns the current primary address; nil leaves it unset.
	Address func() uint16

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewCapture returns a Capture with a fresh session id.
func NewCapture(logger Logger, role string) *Capture {
	return &Capture{
		Logger:    logger,
		SessionID: uuid.NewString(),
		Role:      role,
	}
}

func (c *Capture) enabled() bool {
	return c != nil && c.Logger != nil
}

func (c *Capture) base(dir Direction, layer Layer, cat Category) Event {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	e := Event{
		Timestamp: now(),
		SessionID: c.SessionID,
		Direction: dir,
		Layer:     layer,
		Category:  cat,
		NodeRole:  c.Role,
	}
	if c.Address != nil {
		e.NodeAddress = c.Address()
	}
	return e
}

// Message records an access message.
func (c *Capture) Message(dir Direction, msg MessageEvent) {
	if !c.enabled() {
		return
	}
	e := c.base(dir, LayerAccess, CategoryMessage)
	msg.Payload = append([]byte(nil), msg.Payload...)
	e.Message = &msg
	c.Logger.Log(e)
}

// State records a state transition.
func (c *Capture) State(layer Layer, change StateChangeEvent) {
	if !c.enabled() {
		return
	}
	e := c.base(DirectionIn, layer, CategoryState)
	e.StateChange = &change
	c.Logger.Log(e)
}

// Error records a dropped message or failed operation.
func (c *Capture) Error(layer Layer, err error, context string) {
	if !c.enabled() || err == nil {
		return
	}
	e := c.base(DirectionIn, layer, CategoryError)
	e.Error = &ErrorEventData{Layer: layer, Message: err.Error(), Context: context}
	c.Logger.Log(e)
}
