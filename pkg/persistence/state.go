package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lucamoroz/mesh-go/pkg/color"
	"github.com/lucamoroz/mesh-go/pkg/model"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// NodeState is the persisted part of a node.
type NodeState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Role the state was written by. A node refuses state of another role.
	Role string `json:"role"`

	// Address is the primary unicast address; zero when unprovisioned.
	Address uint16 `json:"address,omitempty"`

	// Publications by PublicationKey.
	Publications map[string]PublicationSnapshot `json:"publications,omitempty"`

	// OnOff is the last generic on/off state.
	OnOff *bool `json:"onoff,omitempty"`

	// HSL is the last light colour.
	HSL *HSLSnapshot `json:"hsl,omitempty"`
}

// PublicationSnapshot mirrors model.Publication for JSON.
type PublicationSnapshot struct {
	Address            uint16        `json:"address"`
	AppKeyIndex        uint16        `json:"app_key_index,omitempty"`
	TTL                uint8         `json:"ttl"`
	RetransmitCount    uint8         `json:"retransmit_count,omitempty"`
	RetransmitInterval time.Duration `json:"retransmit_interval,omitempty"`
	Period             time.Duration `json:"period,omitempty"`
}

// HSLSnapshot mirrors color.HSL for JSON.
type HSLSnapshot struct {
	Hue        uint16 `json:"hue"`
	Saturation uint16 `json:"saturation"`
	Lightness  uint16 `json:"lightness"`
}

// PublicationKey names the publication of model id on element index.
func PublicationKey(element int, id model.ModelID) string {
	return fmt.Sprintf("%d/%s", element, id)
}

// SnapshotPublication converts a publication.
func SnapshotPublication(p model.Publication) PublicationSnapshot {
	return PublicationSnapshot{
		Address:            uint16(p.Address),
		AppKeyIndex:        p.AppKeyIndex,
		TTL:                p.TTL,
		RetransmitCount:    p.Retransmit.Count,
		RetransmitInterval: p.Retransmit.Interval,
		Period:             p.Period,
	}
}

// Publication converts the snapshot back.
func (s PublicationSnapshot) Publication() model.Publication {
	return model.Publication{
		Address:     model.Address(s.Address),
		AppKeyIndex: s.AppKeyIndex,
		TTL:         s.TTL,
		Retransmit:  model.Retransmit{Count: s.RetransmitCount, Interval: s.RetransmitInterval},
		Period:      s.Period,
	}
}

// SnapshotHSL converts a colour.
func SnapshotHSL(h color.HSL) *HSLSnapshot {
	return &HSLSnapshot{Hue: h.Hue, Saturation: h.Saturation, Lightness: h.Lightness}
}

// HSL converts the snapshot back.
func (s HSLSnapshot) HSL() color.HSL {
	return color.HSL{Hue: s.Hue, Saturation: s.Saturation, Lightness: s.Lightness}
}

// NodeStateStore manages persistence of node state to a JSON file.
type NodeStateStore struct {
	mu   sync.Mutex
	path string
}

// NewNodeStateStore creates a new node state store.
func NewNodeStateStore(path string) *NodeStateStore {
	return &NodeStateStore{path: path}
}

// Path returns the state file path.
func (s *NodeStateStore) Path() string {
	return s.path
}

// Save persists the node state to disk. The file is replaced atomically.
func (s *NodeStateStore) Save(state *NodeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	state.SavedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the node state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *NodeStateStore) Load() (*NodeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &NodeState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if state.Version > StateVersion {
		return nil, fmt.Errorf("%s: unsupported state version %d", s.path, state.Version)
	}
	return state, nil
}

// Clear removes the state file.
func (s *NodeStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
