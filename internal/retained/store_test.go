// internal/retained/store_test.go
package retained

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/diag"
)

func newTestStore(t *testing.T, capacity int) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "retained.bin"), capacity, diag.NewNop())
}

func TestLoad_MissingFileIsFresh(t *testing.T) {
	s := newTestStore(t, 4)

	rec, fresh, err := s.Load()
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Equal(t, uint32(0), rec.Boot.BootCount)
	assert.Len(t, rec.Queue.Slots, 4)
}

func TestCommitLoad_RoundTrip(t *testing.T) {
	s := newTestStore(t, 4)

	rec := s.Fresh()
	rec.Boot.BootCount = 7
	rec.Boot.CrashCount = 2
	rec.Boot.CumulativeUptimeS = 321
	rec.Boot.PushBootTime(1000)
	rec.Boot.PushBootTime(12000)
	rec.Wifi = WifiCache{
		Valid:    true,
		BSSID:    [6]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01},
		Channel:  6,
		SSIDHash: 0xabcd1234,
	}
	rec.Queue.Head = 3
	rec.Queue.Tail = 1
	rec.Queue.NextSeq = 3
	rec.Queue.Queued = 3
	rec.Queue.Drained = 1
	rec.Queue.Slots[1] = Sample{Seq: 1, HasTS: true, TS: 1700000000, HasTemp: true, TempC: 21.5, HasRH: true, RHPct: 40.25}

	require.NoError(t, s.Commit(rec))

	got, fresh, err := s.Load()
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, rec, got)
}

func TestLoad_CorruptFallsBackToFresh(t *testing.T) {
	s := newTestStore(t, 4)

	rec := s.Fresh()
	rec.Boot.BootCount = 9
	require.NoError(t, s.Commit(rec))

	// Flip a byte in the body; checksum must reject it.
	raw, err := os.ReadFile(s.path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	require.NoError(t, os.WriteFile(s.path, raw, 0o644))

	got, fresh, err := s.Load()
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Equal(t, uint32(0), got.Boot.BootCount)
}

func TestLoad_TruncatedFallsBackToFresh(t *testing.T) {
	s := newTestStore(t, 4)
	require.NoError(t, s.Commit(s.Fresh()))

	raw, err := os.ReadFile(s.path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.path, raw[:10], 0o644))

	_, fresh, err := s.Load()
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestPushBootTime_EvictsOldest(t *testing.T) {
	var b BootState
	b.PushBootTime(100)
	b.PushBootTime(200)
	b.PushBootTime(300)
	b.PushBootTime(400)

	assert.Equal(t, uint8(3), b.RecentBoots)
	assert.Equal(t, [3]int64{200, 300, 400}, b.RecentBootMS)

	gap, ok := b.LastGapMS()
	require.True(t, ok)
	assert.Equal(t, int64(100), gap)
}

func TestLastGapMS_NeedsTwoStamps(t *testing.T) {
	var b BootState
	_, ok := b.LastGapMS()
	assert.False(t, ok)

	b.PushBootTime(100)
	_, ok = b.LastGapMS()
	assert.False(t, ok)
}
