package monitor

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// defaultShakeThreshold is the acceleration magnitude, in g, a sample
	// must exceed to count as a swing.
	defaultShakeThreshold = 2.25

	// defaultShakeWindow is how quickly the opposite swing must follow the
	// first for the pair to count as a shake.
	defaultShakeWindow = 400 * time.Millisecond

	// defaultShakeRefractory spaces out consecutive shakes.
	defaultShakeRefractory = 600 * time.Millisecond
)

// ShakeDetector declares a shake when acceleration crosses the threshold
// in one direction and then the opposite direction within a short window.
// A refractory interval keeps one physical shake from triggering twice.
// Safe for concurrent use; motion samples typically arrive on a sensor
// callback thread.
type ShakeDetector struct {
	onShake    func()
	clk        clock.Clock
	threshold  float64
	window     time.Duration
	refractory time.Duration

	mu          sync.Mutex
	pendingSign int
	pendingAt   time.Time
	lastShake   time.Time
}

// ShakeOption configures a ShakeDetector.
type ShakeOption func(*ShakeDetector)

// WithShakeClock substitutes the clock.
func WithShakeClock(clk clock.Clock) ShakeOption {
	return func(d *ShakeDetector) { d.clk = clk }
}

// WithShakeThreshold overrides the swing threshold.
func WithShakeThreshold(g float64) ShakeOption {
	return func(d *ShakeDetector) {
		if g > 0 {
			d.threshold = g
		}
	}
}

// WithShakeWindow overrides the swing-pairing window.
func WithShakeWindow(w time.Duration) ShakeOption {
	return func(d *ShakeDetector) {
		if w > 0 {
			d.window = w
		}
	}
}

// WithShakeRefractory overrides the minimum interval between shakes.
func WithShakeRefractory(r time.Duration) ShakeOption {
	return func(d *ShakeDetector) {
		if r > 0 {
			d.refractory = r
		}
	}
}

// NewShakeDetector creates a detector invoking onShake for each detected
// shake.
func NewShakeDetector(onShake func(), opts ...ShakeOption) *ShakeDetector {
	d := &ShakeDetector{
		onShake:    onShake,
		clk:        clock.New(),
		threshold:  defaultShakeThreshold,
		window:     defaultShakeWindow,
		refractory: defaultShakeRefractory,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Sample feeds one signed acceleration reading along the dominant axis.
func (d *ShakeDetector) Sample(accel float64) {
	sign := 0
	switch {
	case accel >= d.threshold:
		sign = 1
	case accel <= -d.threshold:
		sign = -1
	default:
		return
	}

	d.mu.Lock()
	now := d.clk.Now()
	if d.pendingSign != 0 && sign == -d.pendingSign && now.Sub(d.pendingAt) <= d.window {
		d.pendingSign = 0
		if !d.lastShake.IsZero() && now.Sub(d.lastShake) < d.refractory {
			d.mu.Unlock()
			return
		}
		d.lastShake = now
		onShake := d.onShake
		d.mu.Unlock()

		if onShake != nil {
			onShake()
		}
		return
	}
	// Either the first swing, or a repeat in the same direction, or the
	// pair expired. Restart the pairing from this sample.
	d.pendingSign = sign
	d.pendingAt = now
	d.mu.Unlock()
}

// Reset clears any half-completed swing pair.
func (d *ShakeDetector) Reset() {
	d.mu.Lock()
	d.pendingSign = 0
	d.mu.Unlock()
}
