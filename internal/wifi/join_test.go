// internal/wifi/join_test.go
package wifi

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/diag"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/retained"
)

var (
	apA = [6]byte{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x01}
	apB = [6]byte{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x02}
)

// fakeRadio scripts association outcomes. Connection "completes" after a
// configured number of status polls per path.
type fakeRadio struct {
	bssidPolls int // polls until the BSSID path yields an IP; <0 = never
	ssidPolls  int // polls until the SSID path yields an IP; <0 = never

	mode  string // "", "bssid", "ssid"
	polls int

	bssidAttempts int
	ssidAttempts  int
}

func (f *fakeRadio) AssociateBSSID(ssid string, bssid [6]byte, channel uint8) error {
	f.mode = "bssid"
	f.polls = 0
	f.bssidAttempts++
	return nil
}

func (f *fakeRadio) AssociateSSID(ssid string) error {
	f.mode = "ssid"
	f.polls = 0
	f.ssidAttempts++
	return nil
}

func (f *fakeRadio) Status() Status {
	f.polls++
	limit := -1
	ap := apA
	switch f.mode {
	case "bssid":
		limit = f.bssidPolls
	case "ssid":
		limit = f.ssidPolls
		ap = apB
	}
	if limit >= 0 && f.polls > limit {
		return Status{
			Connected: true,
			IP:        net.IPv4(10, 0, 0, 7),
			BSSID:     ap,
			Channel:   6,
			HasRSSI:   true,
			RSSIdBm:   -61,
		}
	}
	return Status{}
}

func (f *fakeRadio) Disconnect() error { return nil }

// newTestManager wires a manager with a stepped fake clock so deadlines
// advance one poll quantum per sleep.
func newTestManager(cfg Config, radio Radio, cache *retained.WifiCache) *Manager {
	m := NewManager(cfg, radio, cache, diag.NewNop())
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }
	m.sleep = func(d time.Duration) { now = now.Add(d) }
	return m
}

func defaultCfg() Config {
	return Config{
		SSID:            "lab",
		OverallTimeout:  6000 * time.Millisecond,
		FastJoinTimeout: 3500 * time.Millisecond,
		PollQuantum:     100 * time.Millisecond,
	}
}

func validCache(bssid [6]byte) *retained.WifiCache {
	return &retained.WifiCache{
		Valid:    true,
		BSSID:    bssid,
		Channel:  6,
		SSIDHash: ssidHash("lab"),
	}
}

func TestJoin_NoCacheUsesSSIDPath(t *testing.T) {
	radio := &fakeRadio{ssidPolls: 2, bssidPolls: -1}
	cache := &retained.WifiCache{}
	m := newTestManager(defaultCfg(), radio, cache)

	rec := m.Join(context.Background())

	require.True(t, rec.Connected())
	assert.False(t, rec.FellBack)
	assert.Nil(t, rec.PreferredBSSID)
	assert.Equal(t, 0, radio.bssidAttempts)
	assert.Equal(t, 1, radio.ssidAttempts)

	// Success populates the fast-join cache for next cycle.
	assert.True(t, cache.Valid)
	assert.Equal(t, apB, cache.BSSID)
}

func TestJoin_FastPathSucceeds(t *testing.T) {
	radio := &fakeRadio{bssidPolls: 3, ssidPolls: -1}
	m := newTestManager(defaultCfg(), radio, validCache(apA))

	rec := m.Join(context.Background())

	require.True(t, rec.Connected())
	assert.False(t, rec.FellBack)
	require.NotNil(t, rec.PreferredBSSID)
	assert.Equal(t, apA, *rec.PreferredBSSID)
	assert.Equal(t, 0, radio.ssidAttempts)
	require.NotNil(t, rec.RSSIdBm)
	assert.Equal(t, -61, *rec.RSSIdBm)
}

func TestJoin_SlowFastPathFallsBackAndConnects(t *testing.T) {
	// BSSID path never completes; SSID path connects after a few polls.
	radio := &fakeRadio{bssidPolls: -1, ssidPolls: 3}
	cache := validCache(apA)
	m := newTestManager(defaultCfg(), radio, cache)

	rec := m.Join(context.Background())

	require.True(t, rec.Connected())
	assert.True(t, rec.FellBack)
	assert.Equal(t, 1, radio.bssidAttempts)
	assert.Equal(t, 1, radio.ssidAttempts)

	// The cache now points at the AP that actually answered.
	assert.Equal(t, apB, cache.BSSID)

	d, ok := rec.JoinDuration()
	require.True(t, ok)
	assert.Greater(t, d, m.cfg.FastJoinTimeout)
	assert.LessOrEqual(t, d, m.cfg.OverallTimeout+m.cfg.PollQuantum)
}

func TestJoin_BothPathsFailReturnsOffline(t *testing.T) {
	radio := &fakeRadio{bssidPolls: -1, ssidPolls: -1}
	m := newTestManager(defaultCfg(), radio, validCache(apA))

	rec := m.Join(context.Background())

	assert.False(t, rec.Connected())
	assert.True(t, rec.FellBack)
	assert.Nil(t, rec.IP)
	_, ok := rec.JoinDuration()
	assert.False(t, ok)
}

func TestJoin_CacheInvalidatedOnSSIDChange(t *testing.T) {
	radio := &fakeRadio{bssidPolls: 0, ssidPolls: 1}
	cache := validCache(apA)
	cache.SSIDHash = ssidHash("some-other-network")
	m := newTestManager(defaultCfg(), radio, cache)

	rec := m.Join(context.Background())

	require.True(t, rec.Connected())
	assert.Nil(t, rec.PreferredBSSID)
	assert.Equal(t, 0, radio.bssidAttempts)
}

func TestJoin_FellBackOnlyWithPreferredBSSID(t *testing.T) {
	// No cache: a slow SSID-only join must not report fell_back.
	radio := &fakeRadio{bssidPolls: -1, ssidPolls: -1}
	m := newTestManager(defaultCfg(), radio, &retained.WifiCache{})

	rec := m.Join(context.Background())
	assert.False(t, rec.FellBack)
}

func TestMACString(t *testing.T) {
	assert.Equal(t, "aa:bb:cc:00:00:01", MACString(apA))
}
