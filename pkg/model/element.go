package model

import (
	"errors"
	"sort"
	"sync"

	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// Element errors.
var (
	ErrModelNotFound   = errors.New("model not found")
	ErrElementNotFound = errors.New("element not found")
	ErrDuplicateModel  = errors.New("duplicate model ID")
)

// Model is a model instance on an element.
type Model struct {
	mu sync.RWMutex

	id      ModelID
	element Address
	pub     Publication
	opcodes []wire.Opcode
}

// NewModel creates a model with an unconfigured publication.
func NewModel(id ModelID) *Model {
	return &Model{id: id}
}

// ID returns the model identifier.
func (m *Model) ID() ModelID {
	return m.id
}

// Element returns the address of the owning element.
func (m *Model) Element() Address {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.element
}

// Publication returns a copy of the publish configuration.
func (m *Model) Publication() Publication {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pub
}

// SetPublication replaces the publish configuration. Only configuration
// paths call this; the message path treats the publication as read-only.
func (m *Model) SetPublication(p Publication) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pub = p
}

// AddOpcodes records opcodes the model handles. Used for inspection only.
func (m *Model) AddOpcodes(ops ...wire.Opcode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opcodes = append(m.opcodes, ops...)
}

// Opcodes returns the opcodes the model handles.
func (m *Model) Opcodes() []wire.Opcode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]wire.Opcode(nil), m.opcodes...)
}

// Element is an addressable part of a node.
type Element struct {
	mu sync.RWMutex

	index   int
	address Address
	models  map[ModelID]*Model
}

// NewElement creates an element at the given composition index.
func NewElement(index int) *Element {
	return &Element{
		index:  index,
		models: make(map[ModelID]*Model),
	}
}

// Index returns the position of the element in the composition.
func (e *Element) Index() int {
	return e.index
}

// Address returns the unicast address of the element.
func (e *Element) Address() Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.address
}

func (e *Element) setAddress(a Address) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.address = a
	for _, m := range e.models {
		m.mu.Lock()
		m.element = a
		m.mu.Unlock()
	}
}

// AddModel adds a model to the element.
func (e *Element) AddModel(m *Model) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.models[m.id]; exists {
		return ErrDuplicateModel
	}
	m.mu.Lock()
	m.element = e.address
	m.mu.Unlock()
	e.models[m.id] = m
	return nil
}

// Model returns a model by id.
func (e *Element) Model(id ModelID) (*Model, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	m, ok := e.models[id]
	if !ok {
		return nil, ErrModelNotFound
	}
	return m, nil
}

// Models returns all models in ascending model id order, independent of
// the order they were added in.
func (e *Element) Models() []*Model {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]*Model, 0, len(e.models))
	for _, m := range e.models {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].id < result[j].id })
	return result
}
