// internal/wifi/join.go
package wifi

import (
	"context"
	"hash/crc32"
	"time"

	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/diag"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/retained"
)

// Config is the join manager's runtime config.
type Config struct {
	SSID string

	// OverallTimeout bounds the whole join attempt; the manager returns
	// within it regardless of outcome.
	OverallTimeout time.Duration

	// FastJoinTimeout is the sub-deadline for the cached-BSSID path.
	FastJoinTimeout time.Duration

	// PollQuantum is how often association state is polled. A blocking
	// driver call may overrun a deadline by at most one quantum.
	PollQuantum time.Duration
}

// Manager runs the join sequence: cached-BSSID fast path first, SSID-only
// fallback second, both under deadlines. It updates the retained fast-join
// cache on success.
type Manager struct {
	cfg   Config
	radio Radio
	cache *retained.WifiCache
	log   *diag.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// NewManager wires a join manager. cache points into the retained record
// and is mutated in place.
func NewManager(cfg Config, radio Radio, cache *retained.WifiCache, log *diag.Logger) *Manager {
	if cfg.PollQuantum <= 0 {
		cfg.PollQuantum = 100 * time.Millisecond
	}
	return &Manager{
		cfg:   cfg,
		radio: radio,
		cache: cache,
		log:   log,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Join attempts association and returns within the overall deadline.
// A failed join is not an error: the record comes back with no IP and the
// cycle proceeds offline.
func (m *Manager) Join(ctx context.Context) JoinRecord {
	rec := JoinRecord{SSID: m.cfg.SSID, StartedAt: m.now()}
	deadline := rec.StartedAt.Add(m.cfg.OverallTimeout)

	m.log.Infof("WiFi: connecting to %s...", m.cfg.SSID)

	// Cached access point first, under the fast sub-deadline.
	if bssid, channel, ok := m.cachedAP(); ok {
		rec.PreferredBSSID = &bssid
		m.log.Infof("WiFi: preferring BSSID %s", MACString(bssid))

		fastDeadline := rec.StartedAt.Add(m.cfg.FastJoinTimeout)
		if fastDeadline.After(deadline) {
			fastDeadline = deadline
		}

		if err := m.radio.AssociateBSSID(m.cfg.SSID, bssid, channel); err == nil {
			if st, ok := m.waitForIP(ctx, fastDeadline); ok {
				return m.connected(rec, st)
			}
		}

		// Sub-deadline elapsed with no IP: abandon the pinned AP.
		rec.FellBack = true
		m.log.Infof("WiFi: BSSID join slow; falling back to SSID-only")
	}

	// Open scan-and-associate for the remainder of the overall deadline.
	if err := m.radio.AssociateSSID(m.cfg.SSID); err == nil {
		if st, ok := m.waitForIP(ctx, deadline); ok {
			return m.connected(rec, st)
		}
	}

	m.log.Warnf("WiFi: join failed within %dms; continuing offline",
		m.cfg.OverallTimeout.Milliseconds())
	return rec
}

// cachedAP returns the fast-join parameters if the cache is valid for the
// configured SSID.
func (m *Manager) cachedAP() (bssid [6]byte, channel uint8, ok bool) {
	if m.cache == nil || !m.cache.Valid {
		return bssid, 0, false
	}
	if m.cache.SSIDHash != ssidHash(m.cfg.SSID) {
		// Network changed since the cache was written.
		m.cache.Valid = false
		return bssid, 0, false
	}
	return m.cache.BSSID, m.cache.Channel, true
}

// waitForIP polls association state until an IP appears or the deadline
// passes. Cooperative: the radio is never interrupted mid-call.
func (m *Manager) waitForIP(ctx context.Context, deadline time.Time) (Status, bool) {
	for {
		st := m.radio.Status()
		if st.Connected && st.IP != nil {
			return st, true
		}
		if ctx.Err() != nil || !m.now().Before(deadline) {
			return Status{}, false
		}
		m.sleep(m.cfg.PollQuantum)
	}
}

func (m *Manager) connected(rec JoinRecord, st Status) JoinRecord {
	rec.ConnectedAt = m.now()
	rec.IP = st.IP
	if st.HasRSSI {
		rssi := st.RSSIdBm
		rec.RSSIdBm = &rssi
		m.log.Infof("WiFi: connected, IP %s RSSI %d dBm", st.IP, rssi)
	} else {
		m.log.Infof("WiFi: connected, IP %s", st.IP)
	}

	if m.cache != nil {
		*m.cache = retained.WifiCache{
			Valid:    true,
			BSSID:    st.BSSID,
			Channel:  st.Channel,
			SSIDHash: ssidHash(m.cfg.SSID),
		}
	}
	return rec
}

func ssidHash(ssid string) uint32 {
	return crc32.ChecksumIEEE([]byte(ssid))
}
