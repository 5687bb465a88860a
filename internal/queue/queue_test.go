// internal/queue/queue_test.go
package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/diag"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/retained"
)

func newRing(capacity int) *Ring {
	st := &retained.QueueState{Slots: make([]retained.Sample, capacity)}
	return Restore(st, capacity, diag.NewNop())
}

func noBudgetLimit() time.Duration { return time.Minute }

func sample(temp float32) retained.Sample {
	return retained.Sample{HasTemp: true, TempC: temp, HasRH: true, RHPct: 50}
}

func TestRoundTrip_OrderPreservedNoDuplicates(t *testing.T) {
	r := newRing(8)

	for i := 0; i < 5; i++ {
		r.Enqueue(sample(float32(i)))
	}
	require.Equal(t, 5, r.Pending())

	var got []retained.Sample
	drained, err := r.Drain(func(s retained.Sample) error {
		got = append(got, s)
		return nil
	}, noBudgetLimit)

	require.NoError(t, err)
	assert.Equal(t, 5, drained)
	assert.Equal(t, 0, r.Pending())

	for i, s := range got {
		assert.Equal(t, uint32(i), s.Seq)
		assert.Equal(t, float32(i), s.TempC)
	}
}

func TestOverflow_KeepsMostRecent(t *testing.T) {
	const capacity = 4
	const extra = 3
	r := newRing(capacity)

	for i := 0; i < capacity+extra; i++ {
		_, evicted := r.Enqueue(sample(float32(i)))
		assert.Equal(t, i >= capacity, evicted, "i=%d", i)
	}
	assert.Equal(t, capacity, r.Pending())

	var got []retained.Sample
	_, err := r.Drain(func(s retained.Sample) error {
		got = append(got, s)
		return nil
	}, noBudgetLimit)
	require.NoError(t, err)

	// The survivors are the most recent `capacity` samples, in order.
	require.Len(t, got, capacity)
	for i, s := range got {
		assert.Equal(t, uint32(extra+i), s.Seq)
	}
}

func TestDrain_StopsWhenBudgetExhausted(t *testing.T) {
	r := newRing(8)
	for i := 0; i < 6; i++ {
		r.Enqueue(sample(float32(i)))
	}

	calls := 0
	drained, err := r.Drain(func(retained.Sample) error {
		calls++
		return nil
	}, func() time.Duration {
		if calls >= 2 {
			return 0
		}
		return time.Second
	})

	require.NoError(t, err)
	assert.Equal(t, 2, drained)
	assert.Equal(t, 4, r.Pending())
}

func TestDrain_ResumableAfterPublishFailure(t *testing.T) {
	r := newRing(8)
	for i := 0; i < 3; i++ {
		r.Enqueue(sample(float32(i)))
	}

	failAfter := 1
	drained, err := r.Drain(func(retained.Sample) error {
		if failAfter == 0 {
			return errors.New("broker gone")
		}
		failAfter--
		return nil
	}, noBudgetLimit)

	require.Error(t, err)
	assert.Equal(t, 1, drained)
	assert.Equal(t, 2, r.Pending())

	// Next cycle picks up where it left off, starting at seq 1.
	var got []retained.Sample
	_, err = r.Drain(func(s retained.Sample) error {
		got = append(got, s)
		return nil
	}, noBudgetLimit)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint32(1), got[0].Seq)
	assert.Equal(t, uint32(2), got[1].Seq)
}

func TestCounters_Reconcile(t *testing.T) {
	r := newRing(4)

	for i := 0; i < 7; i++ {
		r.Enqueue(sample(float32(i)))
	}
	_, err := r.Drain(func(retained.Sample) error { return nil }, noBudgetLimit)
	require.NoError(t, err)

	r.Enqueue(sample(99))

	queued, drained, dropped := r.Counters()
	assert.Equal(t, queued-dropped, drained+uint32(r.Pending()))
}

func TestRestore_ShrinkKeepsNewest(t *testing.T) {
	st := &retained.QueueState{Slots: make([]retained.Sample, 6)}
	r := Restore(st, 6, diag.NewNop())
	for i := 0; i < 5; i++ {
		r.Enqueue(sample(float32(i)))
	}

	// Reattach with a smaller capacity, as after a config change.
	r2 := Restore(st, 3, diag.NewNop())
	assert.Equal(t, 3, r2.Pending())

	var got []retained.Sample
	_, err := r2.Drain(func(s retained.Sample) error {
		got = append(got, s)
		return nil
	}, noBudgetLimit)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, uint32(2), got[0].Seq)
	assert.Equal(t, uint32(4), got[2].Seq)
}
