package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Breaker defaults.
const (
	DefaultBreakerFailures = 5
	DefaultBreakerTimeout  = 30 * time.Second
)

// BreakerConfig configures a BreakerBroker.
type BreakerConfig struct {
	// Failures is the number of consecutive publish failures that opens
	// the breaker.
	Failures uint32

	// Timeout is how long the breaker stays open before a trial publish.
	Timeout time.Duration

	Logger *slog.Logger
}

// BreakerBroker fails publishes fast while the broker keeps refusing them.
// Subscriptions pass through unguarded.
type BreakerBroker struct {
	next Broker
	cb   *gobreaker.CircuitBreaker
}

var _ Broker = (*BreakerBroker)(nil)

// NewBreakerBroker wraps next.
func NewBreakerBroker(next Broker, cfg BreakerConfig) *BreakerBroker {
	if cfg.Failures == 0 {
		cfg.Failures = DefaultBreakerFailures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBreakerTimeout
	}
	return &BreakerBroker{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "mqtt-publish",
			Timeout: cfg.Timeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= cfg.Failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				if cfg.Logger != nil {
					cfg.Logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
				}
			},
		}),
	}
}

// Publish publishes through the breaker. An open breaker returns
// gobreaker.ErrOpenState without calling the broker.
func (b *BreakerBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Publish(ctx, topic, payload)
	})
	return err
}

// Subscribe subscribes on the wrapped broker.
func (b *BreakerBroker) Subscribe(ctx context.Context, topic string, h func(topic string, payload []byte)) error {
	return b.next.Subscribe(ctx, topic, h)
}

// State returns the breaker state.
func (b *BreakerBroker) State() gobreaker.State {
	return b.cb.State()
}
