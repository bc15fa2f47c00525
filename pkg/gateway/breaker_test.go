package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerBroker(t *testing.T) {
	next := &fakeBroker{err: errors.New("broker down")}
	b := NewBreakerBroker(next, BreakerConfig{Failures: 2, Timeout: 20 * time.Millisecond})
	ctx := context.Background()

	assert.EqualError(t, b.Publish(ctx, "t", []byte("1")), "broker down")
	assert.EqualError(t, b.Publish(ctx, "t", []byte("2")), "broker down")
	assert.Equal(t, gobreaker.StateOpen, b.State())
	assert.ErrorIs(t, b.Publish(ctx, "t", []byte("3")), gobreaker.ErrOpenState)

	next.mu.Lock()
	next.err = nil
	next.mu.Unlock()

	require.Eventually(t, func() bool {
		return b.Publish(ctx, "t", []byte("4")) == nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Len(t, next.sent(), 1)
}

func TestBreakerBrokerSubscribe(t *testing.T) {
	next := &fakeBroker{}
	b := NewBreakerBroker(next, BreakerConfig{})

	var got string
	require.NoError(t, b.Subscribe(context.Background(), DefaultRPCTopic, func(topic string, _ []byte) { got = topic }))
	next.deliver("v1/devices/me/rpc/request/1", nil)
	assert.Equal(t, "v1/devices/me/rpc/request/1", got)
}
