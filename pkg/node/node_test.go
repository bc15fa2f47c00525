package node

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucamoroz/mesh-go/internal/meshtest"
	"github.com/lucamoroz/mesh-go/pkg/color"
	"github.com/lucamoroz/mesh-go/pkg/gesture"
	"github.com/lucamoroz/mesh-go/pkg/interaction"
	"github.com/lucamoroz/mesh-go/pkg/led"
	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/models"
	"github.com/lucamoroz/mesh-go/pkg/persistence"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

const (
	lightGroup  model.Address = 0xC000
	sensorGroup model.Address = 0xC001
)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func fixedTHP() models.Reader {
	return models.THPReaderFunc(func(context.Context) (float64, float64, float64, error) {
		return 22.5, 41, 99.8, nil
	})
}

func fixedGas(ppm uint16) models.Reader {
	return models.GasReaderFunc(func(context.Context) (uint16, error) { return ppm, nil })
}

func startNode(t *testing.T, cfg Config, deps Deps) (*Node, *led.MemoryOutput) {
	t.Helper()
	out := &led.MemoryOutput{}
	if deps.Output == nil {
		deps.Output = out
	}
	if deps.Sleep == nil {
		deps.Sleep = noSleep
	}
	n, err := New(cfg, deps)
	require.NoError(t, err)
	require.NoError(t, n.Start(context.Background()))
	t.Cleanup(n.Stop)
	return n, out
}

func idle(t *testing.T, n *Node) {
	t.Helper()
	assert.Eventually(t, func() bool { return !n.gestures.Busy() && !n.background.Busy() },
		time.Second, time.Millisecond)
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{Role: RoleLight}, Deps{})
	assert.ErrorIs(t, err, ErrNoTransport)

	_, err = New(Config{Role: "fridge"}, Deps{Transport: &meshtest.Recorder{}})
	assert.ErrorIs(t, err, ErrUnknownRole)

	_, err = New(Config{Role: RoleSensor}, Deps{Transport: &meshtest.Recorder{}})
	assert.ErrorIs(t, err, ErrNoReader)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Proxy ")
	require.NoError(t, err)
	assert.Equal(t, RoleProxy, r)
}

func TestCompositions(t *testing.T) {
	tests := []struct {
		role     Role
		elements int
		models   []model.ModelID
	}{
		{RoleLight, 1, []model.ModelID{model.ConfigServer, model.HealthServer, model.GenOnOffServer, model.SensorServer, model.LightHSLServer}},
		{RoleSwitch, 1, []model.ModelID{model.ConfigServer, model.HealthServer, model.GenOnOffClient, model.LightHSLClient}},
		{RoleSensor, 2, []model.ModelID{model.ConfigServer, model.HealthServer, model.GenOnOffServer, model.SensorServer}},
		{RoleProxy, 1, []model.ModelID{model.ConfigServer, model.HealthServer, model.GenOnOffClient, model.SensorServer, model.SensorClient}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			n, err := New(Config{Role: tt.role}, Deps{
				Transport: &meshtest.Recorder{}, THP: fixedTHP(), Gas: fixedGas(0),
			})
			require.NoError(t, err)
			elems := n.Composition().Elements()
			require.Len(t, elems, tt.elements)

			var ids []model.ModelID
			for _, m := range elems[0].Models() {
				ids = append(ids, m.ID())
			}
			assert.Equal(t, tt.models, ids)
			assert.Equal(t, model.DeviceUUID(string(tt.role), ""), n.Composition().UUID())
		})
	}
}

func TestLightHandlesSwitch(t *testing.T) {
	net := mesh.NewNetwork(mesh.NetworkConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() { cancel(); net.Close() })

	var light *Node
	lightPort := net.Attach(ctx, mesh.PortConfig{
		Name:   "light",
		Groups: []model.Address{lightGroup},
		Receive: func(ctx context.Context, d mesh.Delivery) {
			light.Receive(ctx, d)
		},
	})
	light, lightOut := startNode(t, Config{Role: RoleLight, Address: 0x0010}, Deps{
		Transport:     lightPort,
		OnProvisioned: func(a []model.Address) { lightPort.SetAddresses(a...) },
	})
	assert.Equal(t, []model.Address{0x0010}, light.Addresses())

	pub := model.Publication{Address: lightGroup, TTL: 7}
	sw, _ := startNode(t, Config{
		Role:    RoleSwitch,
		Address: 0x0020,
		Publications: []PublicationConfig{
			{Model: model.GenOnOffClient, Publication: pub},
			{Model: model.LightHSLClient, Publication: pub},
		},
	}, Deps{Transport: net.Attach(ctx, mesh.PortConfig{Name: "switch"})})

	// Short clicks walk off, on.
	require.True(t, sw.Click(gesture.Short))
	idle(t, sw)
	require.True(t, sw.Click(gesture.Short))

	assert.Eventually(t, func() bool { return lightOut.Last() == color.White }, time.Second, time.Millisecond)
	assert.True(t, *light.Snapshot().OnOff)

	// A long click sends red, the first palette colour.
	idle(t, sw)
	require.True(t, sw.Click(gesture.Long))
	red := color.FromHSL(0x0000, 0xFFFF, 0x7FFF)
	assert.Eventually(t, func() bool { return lightOut.Last() == red }, time.Second, time.Millisecond)
}

func TestSensorGasTriggerReachesProxyAndGateway(t *testing.T) {
	net := mesh.NewNetwork(mesh.NetworkConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() { cancel(); net.Close() })

	var mu sync.Mutex
	var gateway []mesh.Delivery
	net.Attach(ctx, mesh.PortConfig{
		Name:         "gateway",
		AllNodesOnly: true,
		Receive: func(_ context.Context, d mesh.Delivery) {
			mu.Lock()
			gateway = append(gateway, d)
			mu.Unlock()
		},
	})

	var proxy *Node
	proxyPort := net.Attach(ctx, mesh.PortConfig{
		Name:   "proxy",
		Groups: []model.Address{sensorGroup},
		Receive: func(ctx context.Context, d mesh.Delivery) {
			proxy.Receive(ctx, d)
		},
	})
	proxy, proxyOut := startNode(t, Config{Role: RoleProxy, Address: 0x0001}, Deps{Transport: proxyPort})
	proxyPort.SetAddresses(proxy.Addresses()...)

	sensorPort := net.Attach(ctx, mesh.PortConfig{Name: "sensor"})
	sensor, sensorOut := startNode(t, Config{
		Role:    RoleSensor,
		Address: 0x0030,
		Publications: []PublicationConfig{
			{Element: 1, Model: model.SensorServer, Publication: model.Publication{Address: sensorGroup, TTL: 7}},
		},
	}, Deps{Transport: sensorPort, THP: fixedTHP(), Gas: fixedGas(0)})

	require.NoError(t, sensor.GasTrigger(1200))

	assert.Eventually(t, func() bool { return sensorOut.Last() == color.Red }, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return proxyOut.Last() == color.Green }, time.Second, time.Millisecond)

	alarm, flagged := proxy.Alarm()
	assert.True(t, bool(alarm))
	assert.Equal(t, []uint16{0x0031}, flagged, "flagged by the gas element address")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(gateway) == 1
	}, time.Second, time.Millisecond)

	mu.Lock()
	d := gateway[0]
	mu.Unlock()
	op, params, err := wire.SplitOpcode(d.Access)
	require.NoError(t, err)
	assert.Equal(t, wire.OpSensorStatus, op)
	relayed, err := wire.DecodeRelayedStatus(params)
	require.NoError(t, err)
	assert.Equal(t, uint16(sensorGroup), relayed.OriginalDst)
	assert.Equal(t, model.Address(0x0001), d.Src)
	assert.Equal(t, uint8(2), d.TTL)

	idle(t, sensor)
	require.NoError(t, sensor.GasTrigger(300))
	assert.Eventually(t, func() bool { return proxyOut.Last().IsOff() }, time.Second, time.Millisecond)
	assert.True(t, sensorOut.Last().IsOff())
}

func TestProxyClicks(t *testing.T) {
	rec := &meshtest.Recorder{}
	n, out := startNode(t, Config{Role: RoleProxy, Address: 0x0001}, Deps{Transport: rec})

	n.autoconf(model.SensorClient)
	n.autoconf(model.GenOnOffClient)
	m, err := n.Composition().Model(0x0001, model.GenOnOffClient)
	require.NoError(t, err)
	assert.Equal(t, model.AddrAllNodes, m.Publication().Address)
	assert.Equal(t, model.DefaultTTL, m.Publication().TTL)

	out.Reset()
	require.True(t, n.Click(gesture.Short))
	idle(t, n)
	assert.Contains(t, out.History(), color.Blue)
	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, wire.OpOnOffSetUnack, last.Opcode)
	assert.Equal(t, byte(0), last.Payload[0])

	require.True(t, n.Click(gesture.Short))
	idle(t, n)
	last, _ = rec.Last()
	assert.Equal(t, byte(1), last.Payload[0])

	require.True(t, n.Click(gesture.Short))
	idle(t, n)
	last, _ = rec.Last()
	assert.Equal(t, wire.OpSensorGet, last.Opcode)

	require.True(t, n.Click(gesture.LongLong))
	idle(t, n)
	assert.False(t, n.Provisioned())
	assert.Contains(t, out.History(), color.Red)
}

func TestSwitchShortCycle(t *testing.T) {
	rec := &meshtest.Recorder{}
	pub := model.Publication{Address: lightGroup, TTL: 7}
	n, _ := startNode(t, Config{
		Role:    RoleSwitch,
		Address: 0x0020,
		Publications: []PublicationConfig{
			{Model: model.GenOnOffClient, Publication: pub},
			{Model: model.LightHSLClient, Publication: pub},
		},
	}, Deps{Transport: rec})

	var ops []wire.Opcode
	for i := 0; i < 5; i++ {
		require.True(t, n.Click(gesture.Short))
		idle(t, n)
	}
	for _, f := range rec.Frames() {
		ops = append(ops, f.Opcode)
	}
	assert.Equal(t, []wire.Opcode{
		wire.OpOnOffSetUnack, wire.OpOnOffSetUnack, wire.OpOnOffGet, wire.OpHSLSetUnack, wire.OpOnOffSetUnack,
	}, ops)
}

func TestClickDroppedWhileBusy(t *testing.T) {
	release := make(chan struct{})
	n, err := New(Config{Role: RoleProxy, Address: 0x0001}, Deps{
		Transport: &meshtest.Recorder{},
		Sleep: func(ctx context.Context, d time.Duration) error {
			if d == feedbackOn {
				<-release
			}
			return nil
		},
	})
	require.NoError(t, err)
	require.NoError(t, n.Start(context.Background()))
	t.Cleanup(n.Stop)

	require.True(t, n.Click(gesture.Short))
	assert.False(t, n.Click(gesture.Short), "second click while the first runs")
	close(release)
	idle(t, n)
}

func TestPersistence(t *testing.T) {
	store := persistence.NewNodeStateStore(filepath.Join(t.TempDir(), "light.json"))
	rec := &meshtest.Recorder{}

	first, _ := startNode(t, Config{Role: RoleLight}, Deps{Transport: rec, Store: store})
	assert.False(t, first.Provisioned())
	require.NoError(t, first.Provision(0x0040))
	require.NoError(t, first.SetPublication(0, model.GenOnOffServer, model.Publication{Address: lightGroup, TTL: 3}))

	access, err := wire.NewMessage(wire.OpOnOffSetUnack, []byte{1, 0})
	require.NoError(t, err)
	require.NoError(t, first.Handle(context.Background(), access, interaction.MessageContext{Src: 0x0002, Dst: 0x0040}))
	first.Stop()

	second, out := startNode(t, Config{Role: RoleLight}, Deps{Transport: rec, Store: store})
	assert.Equal(t, model.Address(0x0040), second.Composition().Primary())
	m, err := second.Composition().Model(0x0040, model.GenOnOffServer)
	require.NoError(t, err)
	assert.Equal(t, lightGroup, m.Publication().Address)
	assert.True(t, *second.Snapshot().OnOff)
	assert.Equal(t, color.White, out.Last(), "restored on state drives the led")

	t.Run("OtherRoleIgnored", func(t *testing.T) {
		sw, _ := startNode(t, Config{Role: RoleSwitch}, Deps{Transport: rec, Store: store})
		assert.False(t, sw.Provisioned())
	})
}

func TestOutputPIN(t *testing.T) {
	n, out := startNode(t, Config{Role: RoleProxy}, Deps{Transport: &meshtest.Recorder{}})
	out.Reset()

	require.NoError(t, n.OutputPIN(context.Background(), 1234))
	assert.Empty(t, out.History())

	require.NoError(t, n.OutputPIN(context.Background(), 111))
	var lit []color.RGB
	for _, c := range out.History() {
		if !c.IsOff() {
			lit = append(lit, c)
		}
	}
	assert.Equal(t, []color.RGB{color.Red, color.Green, color.Blue}, lit)
}

func TestAttention(t *testing.T) {
	n, out := startNode(t, Config{Role: RoleLight}, Deps{Transport: &meshtest.Recorder{}})
	require.NoError(t, n.AttentionOn())
	assert.Equal(t, color.Red, out.Last())
	require.NoError(t, n.AttentionOff())
	assert.True(t, out.Last().IsOff())
}

func TestPublishSensors(t *testing.T) {
	rec := &meshtest.Recorder{}
	n, _ := startNode(t, Config{
		Role:    RoleSensor,
		Address: 0x0030,
		Publications: []PublicationConfig{
			{Element: 0, Model: model.SensorServer, Publication: model.Publication{Address: sensorGroup}},
			{Element: 1, Model: model.SensorServer, Publication: model.Publication{Address: sensorGroup}},
		},
	}, Deps{Transport: rec, THP: fixedTHP(), Gas: fixedGas(420)})

	require.NoError(t, n.PublishSensors(context.Background()))
	frames := rec.Frames()
	require.Len(t, frames, 2)
	assert.Len(t, frames[0].Payload, wire.THPStatusLen)
	assert.Len(t, frames[1].Payload, wire.GasStatusLen)

	sw, _ := startNode(t, Config{Role: RoleSwitch}, Deps{Transport: rec})
	assert.ErrorIs(t, sw.PublishSensors(context.Background()), ErrNotSupported)
	assert.ErrorIs(t, sw.GasTrigger(1), ErrNotSupported)
}
