// internal/queue/queue.go
package queue

import (
	"time"

	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/diag"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/retained"
)

// Ring is the offline sample queue: a fixed-capacity ring over retained
// slots. Head and Tail are monotonic counters (slot = counter % capacity),
// so Tail <= Head always holds and the pending count is Head - Tail.
// When full, the oldest sample is overwritten; the loss is counted, never
// raised as an error.
type Ring struct {
	st  *retained.QueueState
	log *diag.Logger
}

// Restore attaches ring logic to retained queue state, resizing the slot
// array if the configured capacity changed since the state was written.
// On shrink the newest pending samples are kept.
func Restore(st *retained.QueueState, capacity int, log *diag.Logger) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	if len(st.Slots) != capacity {
		resize(st, capacity)
	}
	return &Ring{st: st, log: log}
}

func resize(st *retained.QueueState, capacity int) {
	old := st.Slots
	oldCap := len(old)

	pending := int(st.Head - st.Tail)
	if pending > oldCap {
		pending = oldCap
	}
	if dropped := pending - capacity; dropped > 0 {
		st.Dropped += uint32(dropped)
		st.Tail += uint32(dropped)
		pending = capacity
	}

	slots := make([]retained.Sample, capacity)
	for i := 0; i < pending; i++ {
		c := st.Tail + uint32(i)
		slots[c%uint32(capacity)] = old[c%uint32(oldCap)]
	}
	st.Slots = slots
}

// Pending is the number of queued, not-yet-drained samples.
func (r *Ring) Pending() int {
	return int(r.st.Head - r.st.Tail)
}

// Enqueue stores a sample that could not be published, assigning the next
// monotonic sequence number. Returns the stored sample and whether the
// oldest entry was evicted to make room.
func (r *Ring) Enqueue(s retained.Sample) (stored retained.Sample, evicted bool) {
	capacity := uint32(len(r.st.Slots))

	s.Seq = r.st.NextSeq
	r.st.NextSeq++

	if r.st.Head-r.st.Tail >= capacity {
		// Ring full: advance tail over the oldest sample.
		r.st.Tail++
		r.st.Dropped++
		evicted = true
	}

	r.st.Slots[r.st.Head%capacity] = s
	r.st.Head++
	r.st.Queued++

	r.log.Infof("Offline: queued seq=%d ts=%d (C=%.2f RH=%.2f)",
		s.Seq, s.TS, s.TempC, s.RHPct)
	return s, evicted
}

// Drain publishes queued samples oldest-first until the ring is empty, the
// remaining budget runs out, or publish fails. A partial drain is not an
// error: whatever was not delivered stays queued for the next cycle.
func (r *Ring) Drain(publish func(retained.Sample) error, remaining func() time.Duration) (drained int, err error) {
	if r.Pending() == 0 {
		return 0, nil
	}
	capacity := uint32(len(r.st.Slots))

	r.log.Infof("Offline: draining %d samples (tail=%d head=%d)",
		r.Pending(), r.st.Tail, r.st.Head)

	for r.st.Tail < r.st.Head {
		if remaining() <= 0 {
			return drained, nil
		}
		s := r.st.Slots[r.st.Tail%capacity]
		if err := publish(s); err != nil {
			// Sample stays queued; the next cycle resumes here.
			return drained, err
		}
		r.st.Tail++
		r.st.Drained++
		drained++
	}
	return drained, nil
}

// Counters reports the lifetime reconciliation counters:
// queued - dropped = drained + pending.
func (r *Ring) Counters() (queued, drained, dropped uint32) {
	return r.st.Queued, r.st.Drained, r.st.Dropped
}
