// internal/retained/record.go
package retained

// Record is the full retained-memory image that survives deep sleep.
// Layout is versioned and checksummed; all fields are fixed-size so the
// binary image is stable across builds.
type Record struct {
	Boot  BootState
	Wifi  WifiCache
	Queue QueueState
}

// BootState mirrors the counters the boot classifier maintains.
// Cleared only on a power-on reset.
type BootState struct {
	BootCount         uint32
	CrashCount        uint32
	CumulativeUptimeS uint32

	// RecentBootMS holds the monotonic-ms stamps of the most recent boots,
	// oldest first. RecentBoots is how many entries are valid.
	RecentBoots  uint8
	RecentBootMS [3]int64
}

// PushBootTime appends a boot stamp, evicting the oldest when full.
func (b *BootState) PushBootTime(ms int64) {
	if int(b.RecentBoots) < len(b.RecentBootMS) {
		b.RecentBootMS[b.RecentBoots] = ms
		b.RecentBoots++
		return
	}
	copy(b.RecentBootMS[:], b.RecentBootMS[1:])
	b.RecentBootMS[len(b.RecentBootMS)-1] = ms
}

// LastGapMS is the gap between the two most recent boot stamps.
// ok is false until two stamps exist.
func (b *BootState) LastGapMS() (gap int64, ok bool) {
	if b.RecentBoots < 2 {
		return 0, false
	}
	n := int(b.RecentBoots)
	return b.RecentBootMS[n-1] - b.RecentBootMS[n-2], true
}

// WifiCache holds the fast-join parameters of the last successful
// association. SSIDHash invalidates the cache when the configured
// network changes.
type WifiCache struct {
	Valid    bool
	BSSID    [6]byte
	Channel  uint8
	SSIDHash uint32
}

// QueueState is the offline sample ring. Head and Tail are monotonic
// counters; the slot for counter c is Slots[c % len(Slots)].
type QueueState struct {
	Head    uint32
	Tail    uint32
	NextSeq uint32

	// Lifetime reconciliation counters:
	// Queued - Dropped = Drained + pending.
	Queued  uint32
	Drained uint32
	Dropped uint32

	Slots []Sample
}

// Sample is one queued measurement. Absent values are flagged, never
// coerced to zero.
type Sample struct {
	Seq uint32

	HasTS bool
	TS    uint32 // unix seconds; only meaningful when HasTS

	HasTemp bool
	TempC   float32

	HasRH bool
	RHPct float32
}
