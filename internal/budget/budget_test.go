// internal/budget/budget_test.go
package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/diag"
)

// fakeClock steps time only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time       { return c.t }
func (c *fakeClock) step(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker(limits map[Phase]time.Duration) (*Tracker, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	tr := New(limits, diag.NewNop())
	tr.now = clk.now
	return tr, clk
}

func TestStop_WithinBudget(t *testing.T) {
	tr, clk := newTestTracker(map[Phase]time.Duration{SensorRead: 500 * time.Millisecond})

	tr.Start(SensorRead)
	clk.step(200 * time.Millisecond)
	elapsed, breached := tr.Stop(SensorRead)

	assert.Equal(t, 200*time.Millisecond, elapsed)
	assert.False(t, breached)
	assert.Equal(t, uint32(0), tr.Timeouts())
}

func TestStop_BreachCountsButDoesNotAbort(t *testing.T) {
	tr, clk := newTestTracker(map[Phase]time.Duration{Publish: 100 * time.Millisecond})

	tr.Start(Publish)
	clk.step(250 * time.Millisecond)
	elapsed, breached := tr.Stop(Publish)

	assert.Equal(t, 250*time.Millisecond, elapsed)
	assert.True(t, breached)
	assert.Equal(t, uint32(1), tr.Timeouts())
}

func TestStop_AccumulatesAcrossBrackets(t *testing.T) {
	tr, clk := newTestTracker(map[Phase]time.Duration{Publish: 300 * time.Millisecond})

	tr.Start(Publish)
	clk.step(200 * time.Millisecond)
	_, breached := tr.Stop(Publish)
	assert.False(t, breached)

	tr.Start(Publish)
	clk.step(200 * time.Millisecond)
	elapsed, breached := tr.Stop(Publish)

	assert.Equal(t, 400*time.Millisecond, elapsed)
	assert.True(t, breached)
}

func TestRemaining(t *testing.T) {
	tr, clk := newTestTracker(map[Phase]time.Duration{Publish: 300 * time.Millisecond})

	assert.Equal(t, 300*time.Millisecond, tr.Remaining(Publish))

	tr.Start(Publish)
	clk.step(100 * time.Millisecond)
	assert.Equal(t, 200*time.Millisecond, tr.Remaining(Publish))

	clk.step(900 * time.Millisecond)
	assert.Equal(t, time.Duration(0), tr.Remaining(Publish))
}

func TestRemaining_UnbudgetedIsGenerous(t *testing.T) {
	tr, _ := newTestTracker(nil)
	assert.Greater(t, tr.Remaining(Display), time.Minute)
}

func TestStop_WithoutStartIsNoop(t *testing.T) {
	tr, _ := newTestTracker(map[Phase]time.Duration{Display: time.Second})
	elapsed, breached := tr.Stop(Display)
	assert.Equal(t, time.Duration(0), elapsed)
	assert.False(t, breached)
}
