package node

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lucamoroz/mesh-go/pkg/led"
	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/models"
	"github.com/lucamoroz/mesh-go/pkg/persistence"
)

// PublicationConfig is the publication of one model.
type PublicationConfig struct {
	Element int
	Model   model.ModelID
	model.Publication
}

// Config is the static configuration of a node.
type Config struct {
	Role Role

	// UUID defaults to model.DeviceUUID(Role, Serial).
	UUID   uuid.UUID
	Serial string

	// Address provisions the node at boot. Zero leaves it unprovisioned
	// unless persisted state has an address.
	Address model.Address

	// DefaultTTL is used for replies. Zero means model.DefaultTTL.
	DefaultTTL uint8

	Publications []PublicationConfig

	// GasThreshold is the ppm limit for the gas trigger. Zero means
	// trigger.DefaultGasThreshold.
	GasThreshold uint16

	// TriggerCapacity bounds the proxy trigger table.
	TriggerCapacity int

	// Debounce is the button debounce window.
	Debounce time.Duration

	// SensorPeriod publishes sensor readings periodically. Zero uses the
	// publication period.
	SensorPeriod time.Duration
}

// Provisioner is the provisioning collaborator.
type Provisioner interface {
	// Provisioned reports whether the node holds network keys.
	Provisioned() bool

	// Reset returns the node to the unprovisioned state.
	Reset(ctx context.Context) error
}

// Deps are the collaborators of a node.
type Deps struct {
	// Transport is required.
	Transport mesh.Transport

	// Output drives the LED. Defaults to an in-memory output.
	Output led.Output

	// THP and Gas read the sensor node peripherals.
	THP models.Reader
	Gas models.Reader

	Provisioner Provisioner

	// Store persists state across restarts. Optional.
	Store *persistence.NodeStateStore

	// OnProvisioned runs whenever the element addresses change; nil
	// addresses mean the node was reset.
	OnProvisioned func(addrs []model.Address)

	Logger   *slog.Logger
	Protocol log.Logger

	// Now and Sleep replace the clock in tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}
