package node

import (
	"context"
	"errors"
	"time"

	"github.com/lucamoroz/mesh-go/pkg/color"
	"github.com/lucamoroz/mesh-go/pkg/gesture"
	"github.com/lucamoroz/mesh-go/pkg/log"
	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/models"
	"github.com/lucamoroz/mesh-go/pkg/relay"
	"github.com/lucamoroz/mesh-go/pkg/trigger"
	"github.com/lucamoroz/mesh-go/pkg/work"
)

// Proxy timing.
const (
	SensorAutoconfDelay = 2 * time.Second
	OnOffAutoconfDelay  = 6 * time.Second

	feedbackTimes = 2
	feedbackOn    = 300 * time.Millisecond
	feedbackOff   = 100 * time.Millisecond
	proxyReady    = 500 * time.Millisecond
)

// buildProxy: one element with on/off client, sensor client and the
// sensor server the relay publishes from.
func (n *Node) buildProxy() error {
	e := n.comp.AddElement()
	if err := n.addHealth(e, color.Green); err != nil {
		return err
	}

	b, err := n.base(e, model.GenOnOffClient)
	if err != nil {
		return err
	}
	n.onoffCli = &models.OnOffClient{Base: b}

	if b, err = n.base(e, model.SensorClient); err != nil {
		return err
	}
	sensorCli := b

	if b, err = n.base(e, model.SensorServer); err != nil {
		return err
	}
	relaySrv := b.Model
	n.relay = relay.New(relay.Config{
		Transport:   n.deps.Transport,
		Source:      relaySrv.Element,
		AppKeyIndex: relaySrv.Publication().AppKeyIndex,
		Logger:      n.deps.Logger,
		Capture:     n.capture,
	})

	n.trigger = trigger.NewAggregator(trigger.Config{
		Capacity: n.cfg.TriggerCapacity,
		OnAlarm:  n.alarmOn,
		OffAlarm: n.alarmOff,
		Logger:   n.deps.Logger,
	})
	threshold := trigger.Threshold{Aggregator: n.trigger, PPM: n.cfg.GasThreshold}

	n.sensorCli = &models.SensorClient{
		Base:  sensorCli,
		Relay: n.relay,
		OnGas: func(_ context.Context, ppm uint16, from models.Origin) {
			threshold.UpdatePPM(uint16(from.Src), ppm)
		},
		OnTHP: func(_ context.Context, t, h, p float64, from models.Origin) {
			n.debugLog("thp data", "temperature", t, "humidity", h, "pressure", p, "src", from.Src.String())
		},
	}

	n.onClick = n.proxyClick
	n.ready = func(ctx context.Context) error {
		return n.led.Blink(ctx, 1, proxyReady, 0, color.Green)
	}
	return n.register(n.onoffCli, n.sensorCli)
}

func (n *Node) alarmOn() {
	n.capture.State(log.LayerNode, log.StateChangeEvent{Entity: log.StateEntityAlarm, NewState: trigger.AlarmOn.String()})
	if err := n.led.On(color.Green); err != nil {
		n.warnLog("alarm indication failed", "error", err)
	}
}

func (n *Node) alarmOff() {
	n.capture.State(log.LayerNode, log.StateChangeEvent{Entity: log.StateEntityAlarm, NewState: trigger.AlarmOff.String()})
	if err := n.led.Off(); err != nil {
		n.warnLog("alarm indication failed", "error", err)
	}
}

// Alarm reports the aggregated gas alarm of a proxy.
func (n *Node) Alarm() (trigger.Alarm, []uint16) {
	if n.trigger == nil {
		return trigger.AlarmOff, nil
	}
	return n.trigger.Active(), n.trigger.Flagged()
}

func (n *Node) proxyClick(ctx context.Context, c gesture.Click) {
	var err error
	switch c {
	case gesture.Short:
		n.feedback(ctx, color.Blue)
		switch (n.opID.Add(1) - 1) % 3 {
		case 0:
			err = n.onoffCli.SetUnack(ctx, false)
		case 1:
			err = n.onoffCli.SetUnack(ctx, true)
		default:
			err = n.sensorCli.Get(ctx)
		}
	case gesture.Long:
		n.ScheduleAutoconf()
		n.feedback(ctx, color.Green)
	case gesture.LongLong:
		n.feedback(ctx, color.Red)
		err = n.Reset(ctx)
	}
	if err != nil && !errors.Is(err, mesh.ErrUnassignedAddress) {
		n.warnLog("proxy action failed", "click", c.String(), "error", err)
	}
}

func (n *Node) feedback(ctx context.Context, c color.RGB) {
	if err := n.led.Blink(ctx, feedbackTimes, feedbackOn, feedbackOff, c); err != nil {
		n.debugLog("feedback interrupted", "error", err)
	}
}

// ScheduleAutoconf points the sensor client and then the on/off client at
// all nodes. The two steps are staggered so the first publication change
// settles before the second.
func (n *Node) ScheduleAutoconf() {
	steps := []struct {
		delay time.Duration
		id    model.ModelID
	}{
		{SensorAutoconfDelay, model.SensorClient},
		{OnOffAutoconfDelay, model.GenOnOffClient},
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range steps {
		id := s.id
		n.delayed = append(n.delayed, work.After(s.delay, n.background, func(context.Context) {
			n.autoconf(id)
		}))
	}
}

// autoconf publishes model id to all nodes with the default TTL on app
// key 0.
func (n *Node) autoconf(id model.ModelID) {
	pub := model.Publication{}.WithOverride(model.AddrAllNodes, n.resolverTTL(), model.Retransmit{})
	if err := n.SetPublication(0, id, pub); err != nil {
		n.warnLog("autoconf failed", "model", id.String(), "error", err)
		return
	}
	n.infoLog("autoconf done", "model", id.String(), "address", pub.Address.String())
}

func (n *Node) resolverTTL() uint8 {
	if n.cfg.DefaultTTL != 0 {
		return n.cfg.DefaultTTL
	}
	return model.DefaultTTL
}
