// internal/wifi/wifi.go
package wifi

import (
	"net"
	"time"
)

// Status is one snapshot of the radio's association state.
// The join manager depends on polled status only.
type Status struct {
	Connected bool
	IP        net.IP
	BSSID     [6]byte
	Channel   uint8

	HasRSSI bool
	RSSIdBm int
}

// Radio abstracts the wireless driver. Associate calls begin an attempt and
// return immediately; progress is observed by polling Status. The driver
// offers no hard cancellation, so an attempt is abandoned logically by
// starting a new one or disconnecting.
type Radio interface {
	AssociateBSSID(ssid string, bssid [6]byte, channel uint8) error
	AssociateSSID(ssid string) error
	Status() Status
	Disconnect() error
}

// JoinRecord is the per-cycle join diagnostic record.
type JoinRecord struct {
	SSID           string
	PreferredBSSID *[6]byte
	FellBack       bool

	IP      net.IP
	RSSIdBm *int

	StartedAt   time.Time
	ConnectedAt time.Time
}

// Connected reports whether the join yielded an IP.
func (r JoinRecord) Connected() bool {
	return r.IP != nil
}

// JoinDuration is ConnectedAt - StartedAt; undefined unless both are set.
func (r JoinRecord) JoinDuration() (time.Duration, bool) {
	if r.StartedAt.IsZero() || r.ConnectedAt.IsZero() {
		return 0, false
	}
	return r.ConnectedAt.Sub(r.StartedAt), true
}

// MACString renders a BSSID the way the diagnostic lines expect.
func MACString(b [6]byte) string {
	return net.HardwareAddr(b[:]).String()
}
