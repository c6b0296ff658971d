package monitor

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

type shakeCounter struct {
	mu sync.Mutex
	n  int
}

func (c *shakeCounter) fire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *shakeCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func newShakeRig() (*ShakeDetector, *shakeCounter, *clock.Mock) {
	counter := &shakeCounter{}
	clk := clock.NewMock()
	d := NewShakeDetector(counter.fire, WithShakeClock(clk))
	return d, counter, clk
}

func TestShakeOppositeSwingsTrigger(t *testing.T) {
	d, counter, clk := newShakeRig()

	d.Sample(2.5)
	clk.Add(100 * time.Millisecond)
	d.Sample(-2.5)

	assert.Equal(t, 1, counter.count())
}

func TestShakeEitherDirectionFirst(t *testing.T) {
	d, counter, clk := newShakeRig()

	d.Sample(-3.0)
	clk.Add(50 * time.Millisecond)
	d.Sample(3.0)

	assert.Equal(t, 1, counter.count())
}

func TestShakeSubThresholdIgnored(t *testing.T) {
	d, counter, _ := newShakeRig()

	d.Sample(1.0)
	d.Sample(-1.0)
	d.Sample(2.0)
	d.Sample(-2.0)

	assert.Equal(t, 0, counter.count())
}

func TestShakeSameDirectionDoesNotPair(t *testing.T) {
	d, counter, clk := newShakeRig()

	d.Sample(2.5)
	clk.Add(50 * time.Millisecond)
	d.Sample(2.5)
	clk.Add(50 * time.Millisecond)
	d.Sample(2.5)

	assert.Equal(t, 0, counter.count())

	// The last same-direction swing still anchors a fresh pair.
	d.Sample(-2.5)
	assert.Equal(t, 1, counter.count())
}

func TestShakeWindowExpiry(t *testing.T) {
	d, counter, clk := newShakeRig()

	d.Sample(2.5)
	clk.Add(defaultShakeWindow + time.Millisecond)
	d.Sample(-2.5)
	assert.Equal(t, 0, counter.count(), "opposite swing after the window must not pair")

	// The late swing restarts the pairing.
	clk.Add(100 * time.Millisecond)
	d.Sample(2.5)
	assert.Equal(t, 1, counter.count())
}

func TestShakeRefractory(t *testing.T) {
	d, counter, clk := newShakeRig()

	d.Sample(2.5)
	d.Sample(-2.5)
	assert.Equal(t, 1, counter.count())

	// A second complete pair inside the refractory interval is swallowed.
	clk.Add(100 * time.Millisecond)
	d.Sample(2.5)
	d.Sample(-2.5)
	assert.Equal(t, 1, counter.count())

	clk.Add(defaultShakeRefractory)
	d.Sample(2.5)
	d.Sample(-2.5)
	assert.Equal(t, 2, counter.count())
}

func TestShakeReset(t *testing.T) {
	d, counter, _ := newShakeRig()

	d.Sample(2.5)
	d.Reset()
	d.Sample(-2.5)
	assert.Equal(t, 0, counter.count())
}

func TestShakeCustomThreshold(t *testing.T) {
	counter := &shakeCounter{}
	d := NewShakeDetector(counter.fire,
		WithShakeClock(clock.NewMock()),
		WithShakeThreshold(5.0),
	)

	d.Sample(3.0)
	d.Sample(-3.0)
	assert.Equal(t, 0, counter.count())

	d.Sample(6.0)
	d.Sample(-6.0)
	assert.Equal(t, 1, counter.count())
}

func TestShakeNilCallback(t *testing.T) {
	d := NewShakeDetector(nil, WithShakeClock(clock.NewMock()))
	d.Sample(2.5)
	d.Sample(-2.5)
}
