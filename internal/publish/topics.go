// internal/publish/topics.go
package publish

// Topic namespace, per device:
//
//	espsensor/<device-id>/inside/temp     live inside temperature
//	espsensor/<device-id>/inside/hum      live inside humidity
//	espsensor/<device-id>/outside/temp    mirrored outside temperature
//	espsensor/<device-id>/history         offline samples, one JSON per sample
//	espsensor/<device-id>/availability    retained online/offline
//	espsensor/<device-id>/debug           end-of-cycle debug record
//
// Discovery documents live under the auto-discovery prefix:
//
//	homeassistant/sensor/<device-id>_<key>/config

const (
	baseTopicPrefix = "espsensor/"
	discoveryPrefix = "homeassistant/sensor/"

	// PayloadOnline and PayloadOffline are the retained availability states.
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Topics derives every topic for one device id.
type Topics struct {
	base string
	id   string
}

// NewTopics builds the namespace for a device.
func NewTopics(deviceID string) Topics {
	return Topics{base: baseTopicPrefix + deviceID, id: deviceID}
}

func (t Topics) InsideTemp() string   { return t.base + "/inside/temp" }
func (t Topics) InsideHum() string    { return t.base + "/inside/hum" }
func (t Topics) OutsideTemp() string  { return t.base + "/outside/temp" }
func (t Topics) History() string      { return t.base + "/history" }
func (t Topics) Availability() string { return t.base + "/availability" }
func (t Topics) Debug() string        { return t.base + "/debug" }

// Discovery is the retained config topic for one measurement key.
func (t Topics) Discovery(key string) string {
	return discoveryPrefix + t.id + "_" + key + "/config"
}
