package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lucamoroz/mesh-go/pkg/color"
	"github.com/lucamoroz/mesh-go/pkg/model"
)

func TestNodeStateStore(t *testing.T) {
	t.Run("LoadNonExistent", func(t *testing.T) {
		store := NewNodeStateStore(filepath.Join(t.TempDir(), "nonexistent.json"))

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() = %v, want nil for non-existent file", got)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		store := NewNodeStateStore(filepath.Join(t.TempDir(), "nested", "state.json"))

		on := true
		pub := model.Publication{
			Address:    0xC000,
			TTL:        5,
			Retransmit: model.Retransmit{Count: 2, Interval: 50 * time.Millisecond},
			Period:     10 * time.Second,
		}
		state := &NodeState{
			Role:    "light",
			Address: 0x0010,
			Publications: map[string]PublicationSnapshot{
				PublicationKey(0, model.GenOnOffServer): SnapshotPublication(pub),
			},
			OnOff: &on,
			HSL:   SnapshotHSL(color.HSL{Hue: 0x5555, Saturation: 0xFFFF, Lightness: 0x7FFF}),
		}

		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if _, err := os.Stat(store.Path() + ".tmp"); !os.IsNotExist(err) {
			t.Errorf("temporary file left behind")
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Version != StateVersion {
			t.Errorf("Version = %d, want %d", got.Version, StateVersion)
		}
		if got.SavedAt.IsZero() {
			t.Error("SavedAt not set")
		}
		if got.Address != 0x0010 || got.Role != "light" {
			t.Errorf("Address/Role = %#04x/%s", got.Address, got.Role)
		}
		snap, ok := got.Publications["0/GenOnOffServer"]
		if !ok {
			t.Fatalf("publication key missing: %v", got.Publications)
		}
		if snap.Publication() != pub {
			t.Errorf("Publication = %+v, want %+v", snap.Publication(), pub)
		}
		if got.OnOff == nil || !*got.OnOff {
			t.Error("OnOff not restored")
		}
		if got.HSL == nil || got.HSL.HSL().Hue != 0x5555 {
			t.Errorf("HSL = %+v", got.HSL)
		}
	})

	t.Run("FutureVersionRejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewNodeStateStore(path).Load(); err == nil {
			t.Error("Load() accepted a future version")
		}
	})

	t.Run("Corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewNodeStateStore(path).Load(); err == nil {
			t.Error("Load() accepted corrupt JSON")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := NewNodeStateStore(filepath.Join(t.TempDir(), "state.json"))
		if err := store.Save(&NodeState{Role: "proxy"}); err != nil {
			t.Fatal(err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("second Clear() error = %v", err)
		}
		got, _ := store.Load()
		if got != nil {
			t.Error("state still present after Clear")
		}
	})
}
