package gesture

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lucamoroz/mesh-go/pkg/work"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		held time.Duration
		want Click
	}{
		{0, Short},
		{2999 * time.Millisecond, Short},
		{3000 * time.Millisecond, Long},
		{10000 * time.Millisecond, Long},
		{10001 * time.Millisecond, LongLong},
		{time.Minute, LongLong},
	}
	for _, tt := range tests {
		t.Run(tt.held.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.held))
		})
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type harness struct {
	clock   *fakeClock
	c       *Classifier
	clicks  chan Click
	release chan struct{}
}

// newHarness builds a classifier whose handler blocks until release is
// closed or written to, when block is set.
func newHarness(t *testing.T, block bool) *harness {
	t.Helper()
	w := work.New(work.Config{Name: "button"})
	w.Start(context.Background())
	t.Cleanup(w.Stop)

	h := &harness{
		clock:   &fakeClock{now: time.Unix(1000, 0)},
		clicks:  make(chan Click, 8),
		release: make(chan struct{}),
	}
	c, err := New(Config{
		Worker: w,
		Now:    h.clock.Now,
		OnClick: func(ctx context.Context, click Click) {
			h.clicks <- click
			if block {
				select {
				case <-h.release:
				case <-ctx.Done():
				}
			}
		},
	})
	require.NoError(t, err)
	h.c = c
	return h
}

func (h *harness) press(held time.Duration) Click {
	h.c.Press()
	h.clock.Advance(held)
	return h.c.Release()
}

func (h *harness) expect(t *testing.T, want Click) {
	t.Helper()
	select {
	case got := <-h.clicks:
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatalf("no %s click", want)
	}
}

func TestClassifierClicks(t *testing.T) {
	h := newHarness(t, false)

	assert.Equal(t, Short, h.press(500*time.Millisecond))
	h.expect(t, Short)
	assert.Eventually(t, func() bool { return !h.c.Busy() }, time.Second, time.Millisecond)

	h.clock.Advance(time.Second)
	assert.Equal(t, Long, h.press(4*time.Second))
	h.expect(t, Long)
	assert.Eventually(t, func() bool { return !h.c.Busy() }, time.Second, time.Millisecond)

	h.clock.Advance(time.Second)
	assert.Equal(t, LongLong, h.press(11*time.Second))
	h.expect(t, LongLong)
}

func TestClassifierDebounce(t *testing.T) {
	h := newHarness(t, false)

	h.c.Press()
	h.clock.Advance(50 * time.Millisecond)
	assert.Equal(t, Click(0), h.c.Release(), "bounce within window is ignored")

	// The ignored edge still moved the window, so a release 199ms later is
	// ignored as well.
	h.clock.Advance(199 * time.Millisecond)
	assert.Equal(t, Click(0), h.c.Release())

	h.clock.Advance(DebounceDelay)
	assert.Equal(t, Short, h.c.Release())
	h.expect(t, Short)
}

func TestClassifierReleaseWithoutPress(t *testing.T) {
	h := newHarness(t, false)
	assert.Equal(t, Click(0), h.c.Release())
}

func TestClassifierDropsWhileProcessing(t *testing.T) {
	h := newHarness(t, true)

	require.Equal(t, Short, h.press(time.Second))
	h.expect(t, Short)
	assert.True(t, h.c.Busy())

	h.clock.Advance(time.Second)
	assert.Equal(t, Click(0), h.press(time.Second), "click during processing is dropped")

	close(h.release)
	assert.Eventually(t, func() bool { return !h.c.Busy() }, time.Second, time.Millisecond)

	select {
	case c := <-h.clicks:
		t.Fatalf("dropped click %s was delivered later", c)
	case <-time.After(20 * time.Millisecond):
	}

	h.clock.Advance(time.Second)
	assert.Equal(t, Long, h.press(5*time.Second))
	h.expect(t, Long)
}

func TestNewRequiresWorker(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNoWorker)
}
