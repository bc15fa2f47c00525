package model

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// CompanyID is the test company id reported in the composition data.
const CompanyID uint16 = 0xFFFF

// uuidNamespace scopes name-based device UUIDs.
var uuidNamespace = uuid.MustParse("8f1d4b2e-6a3c-5e70-9b84-1c2d3e4f5a60")

// DeviceUUID derives the provisioning identity of a node from its role and
// serial. The same inputs always give the same UUID; different roles never
// collide.
func DeviceUUID(role, serial string) uuid.UUID {
	return uuid.NewSHA1(uuidNamespace, []byte(role+"/"+serial))
}

// Composition is the static structure of a node: an ordered list of
// elements and the models they contain.
type Composition struct {
	mu sync.RWMutex

	uuid     uuid.UUID
	elements []*Element
	primary  Address
}

// NewComposition creates an empty composition with the given identity.
func NewComposition(id uuid.UUID) *Composition {
	return &Composition{uuid: id}
}

// UUID returns the device UUID.
func (c *Composition) UUID() uuid.UUID {
	return c.uuid
}

// AddElement appends a new element and returns it.
func (c *Composition) AddElement() *Element {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := NewElement(len(c.elements))
	if !c.primary.IsUnassigned() {
		e.setAddress(c.primary + Address(e.index))
	}
	c.elements = append(c.elements, e)
	return e
}

// Provision assigns consecutive unicast addresses starting at primary.
func (c *Composition) Provision(primary Address) error {
	if !primary.IsUnicast() {
		return fmt.Errorf("provision: %s is not a unicast address", primary)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if last := int(primary) + len(c.elements) - 1; last > 0x7FFF {
		return fmt.Errorf("provision: %d elements do not fit from %s", len(c.elements), primary)
	}
	c.primary = primary
	for _, e := range c.elements {
		e.setAddress(primary + Address(e.index))
	}
	return nil
}

// Reset clears every element address and publication.
func (c *Composition) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.primary = AddrUnassigned
	for _, e := range c.elements {
		e.setAddress(AddrUnassigned)
		for _, m := range e.Models() {
			m.SetPublication(Publication{})
		}
	}
}

// Primary returns the address of element 0, or AddrUnassigned.
func (c *Composition) Primary() Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.primary
}

// Addresses returns the unicast address of every element.
func (c *Composition) Addresses() []Address {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.primary.IsUnassigned() {
		return nil
	}
	out := make([]Address, len(c.elements))
	for i, e := range c.elements {
		out[i] = e.Address()
	}
	return out
}

// Elements returns the elements in composition order.
func (c *Composition) Elements() []*Element {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Element(nil), c.elements...)
}

// ElementAt returns the element at a composition index.
func (c *Composition) ElementAt(index int) (*Element, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if index < 0 || index >= len(c.elements) {
		return nil, ErrElementNotFound
	}
	return c.elements[index], nil
}

// Element returns the element owning a unicast address.
func (c *Composition) Element(addr Address) (*Element, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.primary.IsUnassigned() || addr < c.primary {
		return nil, ErrElementNotFound
	}
	idx := int(addr - c.primary)
	if idx >= len(c.elements) {
		return nil, ErrElementNotFound
	}
	return c.elements[idx], nil
}

// Model returns the model with id on the element at addr.
func (c *Composition) Model(addr Address, id ModelID) (*Model, error) {
	e, err := c.Element(addr)
	if err != nil {
		return nil, err
	}
	return e.Model(id)
}

// SetPublication configures publication of a model.
func (c *Composition) SetPublication(addr Address, id ModelID, pub Publication) error {
	m, err := c.Model(addr, id)
	if err != nil {
		return fmt.Errorf("set publication %s on %s: %w", id, addr, err)
	}
	m.SetPublication(pub)
	return nil
}

// Owns reports whether addr belongs to one of the elements.
func (c *Composition) Owns(addr Address) bool {
	_, err := c.Element(addr)
	return err == nil
}
