// internal/cycle/controller.go
package cycle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/boot"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/budget"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/diag"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/publish"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/queue"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/retained"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/sensor"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/timesync"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/wifi"
)

// Publisher is the exact contract the controller needs from the MQTT side.
type Publisher interface {
	Send(m publish.Message, wait time.Duration) error
	FetchRetained(topic string, wait time.Duration) ([]byte, error)
	IsConnected() bool
	Close(announceOffline bool)
}

// Display is the out-of-scope rendering pipeline; the controller only
// brackets it with the display budget and hands it the refresh decision.
type Display interface {
	Render(f Frame) error
}

// Frame is what one cycle gives the display.
type Frame struct {
	Inside      sensor.Reading
	Outside     *sensor.Outside
	FullRefresh bool
}

// Config is the controller's validated runtime configuration.
type Config struct {
	Device publish.DeviceInfo

	WakeInterval     time.Duration
	SleepFloor       time.Duration
	FullRefreshEvery uint32
	SleepDisabled    bool

	QueueCapacity int
	PayloadLimit  int
	ExpireAfter   int
	Fahrenheit    bool

	// OutsideTopic is the retained topic carrying the remote reading;
	// empty disables the fetch.
	OutsideTopic string

	Budgets map[budget.Phase]time.Duration
}

// Deps are the controller's collaborators. Everything blocking is already
// deadline-bounded by its own package; the controller only sequences.
type Deps struct {
	Store  *retained.Store
	Reader sensor.Reader

	// Join runs the network join against the retained fast-join cache.
	Join func(ctx context.Context, cache *retained.WifiCache) wifi.JoinRecord

	// Sync obtains wall-clock time; only called after a successful join.
	Sync func(ctx context.Context) timesync.Result

	// Connect confirms the publish channel. Called once per cycle, after
	// time sync; a nil Publisher with error means the cycle runs offline.
	Connect func(ctx context.Context) (Publisher, error)

	// Causes maps platform reset/wake information for this episode.
	// freshRecord is true when retained memory did not survive.
	Causes func(freshRecord bool) (boot.ResetCause, boot.WakeCause)

	Display Display
	Log     *diag.Logger

	now func() time.Time
}

// Result summarizes one wake episode.
type Result struct {
	State State
	Boot  boot.Result

	Join     Outcome
	TimeSync Outcome
	Acquire  Outcome
	Publish  Outcome

	Sleep   time.Duration
	Pending int
	Debug   DebugRecord
}

// Controller drives one wake episode through its stations. Transitions
// always advance; a failed station degrades data quality and the cycle
// still reaches Sleep. The only shape change is Boot -> Diagnostic on a
// rapid-reset loop.
type Controller struct {
	cfg  Config
	deps Deps
}

// New builds a controller.
func New(cfg Config, deps Deps) *Controller {
	if deps.now == nil {
		deps.now = time.Now
	}
	if cfg.SleepFloor <= 0 {
		cfg.SleepFloor = MinSleepFloor
	}
	return &Controller{cfg: cfg, deps: deps}
}

// RunCycle executes exactly one wake episode: Boot -> Join -> TimeSync ->
// Acquire -> Publish(+Drain) -> Sleep, or Boot -> Diagnostic.
func (c *Controller) RunCycle(ctx context.Context) Result {
	start := c.deps.now()
	log := c.deps.Log
	topics := publish.NewTopics(c.cfg.Device.ID)
	tracker := budget.New(c.cfg.Budgets, log)

	var res Result

	// ---- Boot ----

	rec, fresh, err := c.deps.Store.Load()
	if err != nil {
		// Degrade to a fresh record rather than halt; the node must
		// always reach sleep again.
		log.Errorf("Retained: load failed (%v); treating as power-on", err)
		rec = c.deps.Store.Fresh()
		fresh = true
	}

	cause, wake := c.deps.Causes(fresh)
	res.Boot = boot.Classify(cause, wake, log.UptimeMS(), &rec.Boot)
	res.Debug.ResetReason = cause.String()
	res.Debug.WakeupCause = wake.String()

	ring := queue.Restore(&rec.Queue, c.cfg.QueueCapacity, log)

	if res.Boot.RapidReset {
		return c.diagnosticCycle(ctx, rec, ring, res)
	}

	// ---- Join ----

	joinRec := c.deps.Join(ctx, &rec.Wifi)
	if joinRec.Connected() {
		res.Join = ok()
		if joinRec.FellBack {
			res.Join = degraded("bssid fast-join fell back")
		}
		res.Debug.MsBootToWifi = msPtr(log.UptimeMS())
	} else {
		res.Join = unavailable("no network")
	}

	// ---- TimeSync ----

	var clockOffset *time.Duration
	if joinRec.Connected() {
		sync := c.deps.Sync(ctx)
		if sync.Synced {
			res.TimeSync = ok()
			off := sync.Offset
			clockOffset = &off
		} else {
			res.TimeSync = degraded("sntp timeout")
		}
	} else {
		res.TimeSync = unavailable("offline")
	}

	// Broker connect piggybacks on the network being up; it must precede
	// acquisition so the retained outside fetch has a channel.
	var pub Publisher
	if joinRec.Connected() {
		p, err := c.deps.Connect(ctx)
		if err != nil {
			log.Warnf("MQTT: connect failed (%v); continuing offline", err)
		} else {
			pub = p
			res.Debug.MsWifiToMqtt = msPtr(log.UptimeMS() - *res.Debug.MsBootToWifi)
			defer pub.Close(false)
		}
	}

	// ---- Acquire ----

	inside, outside := c.acquire(tracker, pub, &res)

	// ---- Display ----

	frame := Frame{
		Inside:      inside,
		Outside:     outside,
		FullRefresh: FullRefreshDue(rec.Boot.BootCount, c.cfg.FullRefreshEvery),
	}
	if c.deps.Display != nil {
		tracker.Start(budget.Display)
		if err := c.deps.Display.Render(frame); err != nil {
			log.Warnf("Display: render failed (%v)", err)
		}
		tracker.Stop(budget.Display)
	}

	// ---- Publish (+Drain) ----

	c.publish(topics, pub, ring, inside, outside, clockOffset, res.Boot.PowerOnReset, tracker, &res)

	// ---- Sleep ----

	elapsed := c.deps.now().Sub(start)
	res.Sleep = SleepDuration(c.cfg.WakeInterval, elapsed, c.cfg.SleepFloor)
	res.State = StateSleep
	res.Pending = ring.Pending()

	rec.Boot.CumulativeUptimeS += uint32(elapsed / time.Second)
	if err := c.deps.Store.Commit(rec); err != nil {
		log.Errorf("Retained: commit failed (%v)", err)
	}

	if n := tracker.Timeouts(); n > 0 {
		res.Debug.Timeouts = &n
	}
	res.Debug.SleepScheduled = msPtr(res.Sleep.Milliseconds())
	res.Debug.DeepSleepUS = msPtr(res.Sleep.Microseconds())

	c.emitDebug(topics, pub, &res)

	log.Infof("Awake ms: %d", elapsed.Milliseconds())
	log.Infof("Sleeping for %ds", int64(res.Sleep/time.Second))
	return res
}

// diagnosticCycle is the crash-loop breaker: no sleep is scheduled and the
// radios stay up so the node can be inspected. The caller holds awake.
func (c *Controller) diagnosticCycle(ctx context.Context, rec *retained.Record, ring *queue.Ring, res Result) Result {
	c.deps.Log.Warnf("Boot: rapid reset detected (boot_count=%d crash_count=%d); entering diagnostic hold",
		rec.Boot.BootCount, rec.Boot.CrashCount)

	// Bring the network up for inspection, best effort.
	joinRec := c.deps.Join(ctx, &rec.Wifi)
	if joinRec.Connected() {
		res.Join = ok()
	} else {
		res.Join = unavailable("no network")
	}
	res.TimeSync = unavailable("diagnostic")
	res.Acquire = unavailable("diagnostic")
	res.Publish = unavailable("diagnostic")

	if err := c.deps.Store.Commit(rec); err != nil {
		c.deps.Log.Errorf("Retained: commit failed (%v)", err)
	}

	res.State = StateDiagnostic
	res.Pending = ring.Pending()
	return res
}

// acquire reads the local sensor and, when a channel exists, the retained
// outside value. A budget breach flags staleness but keeps the data.
func (c *Controller) acquire(tracker *budget.Tracker, pub Publisher, res *Result) (sensor.Reading, *sensor.Outside) {
	log := c.deps.Log

	tracker.Start(budget.SensorRead)
	inside, err := c.deps.Reader.Read()
	elapsed, breached := tracker.Stop(budget.SensorRead)
	res.Debug.MsSensorRead = msPtr(elapsed.Milliseconds())

	if breached {
		inside.Stale = true
	}
	switch {
	case err != nil && !inside.HasData():
		res.Acquire = unavailable("sensor read failed")
		log.Warnf("Sensor: read failed (%v)", err)
	case err != nil || breached:
		res.Acquire = degraded("partial or late reading")
	default:
		res.Acquire = ok()
	}

	var outside *sensor.Outside
	if c.cfg.OutsideTopic != "" && pub != nil {
		tracker.Start(budget.RetainedFetch)
		payload, err := pub.FetchRetained(c.cfg.OutsideTopic, tracker.Remaining(budget.RetainedFetch))
		tracker.Stop(budget.RetainedFetch)

		if err != nil {
			log.Warnf("Outside: retained fetch failed (%v); showing last known", err)
		} else if o, err := sensor.ParseOutside(payload); err != nil {
			log.Warnf("Outside: %v", err)
		} else {
			outside = &o
		}
	}
	return inside, outside
}

// publish delivers this cycle's data: availability, discovery on power-on,
// queued backlog oldest-first, then the live sample. Anything unsent when
// the channel or budget gives out is routed to the offline queue.
func (c *Controller) publish(topics publish.Topics, pub Publisher, ring *queue.Ring,
	inside sensor.Reading, outside *sensor.Outside, clockOffset *time.Duration,
	powerOn bool, tracker *budget.Tracker, res *Result) {

	log := c.deps.Log

	// Capture timestamp for queueing: absent unless the clock synced.
	var ts *time.Time
	if clockOffset != nil {
		t := c.deps.now().Add(*clockOffset)
		ts = &t
	}

	if pub == nil || !pub.IsConnected() {
		c.enqueue(ring, inside, ts)
		res.Publish = unavailable("no publish channel")
		return
	}

	tracker.Start(budget.Publish)
	defer func() {
		elapsed, _ := tracker.Stop(budget.Publish)
		res.Debug.MsPublish = msPtr(elapsed.Milliseconds())
	}()

	remaining := func() time.Duration { return tracker.Remaining(budget.Publish) }
	send := func(m publish.Message) error { return pub.Send(m, remaining()) }

	// Availability first so subscribers see the node as alive even if the
	// budget dies mid-cycle.
	if m, err := publish.AvailabilityMessage(topics, true, c.cfg.PayloadLimit); err == nil {
		if err := send(m); err != nil {
			log.Warnf("MQTT: availability publish failed (%v)", err)
		}
	}

	// Discovery documents once per power-on.
	if powerOn {
		docs, err := publish.DiscoveryMessages(topics, c.cfg.Device, c.tempUnit(), c.cfg.ExpireAfter, c.cfg.PayloadLimit)
		if err != nil {
			log.Errorf("MQTT: discovery build failed (%v)", err)
		} else {
			for _, m := range docs {
				if err := send(m); err != nil {
					log.Warnf("MQTT: discovery publish failed (%v)", err)
					break
				}
			}
		}
	}

	// Drain backlog before the live sample so history arrives in order.
	if _, err := ring.Drain(func(s retained.Sample) error {
		m, err := publish.HistoryMessage(topics, s, c.cfg.PayloadLimit)
		if err != nil {
			return err
		}
		return send(m)
	}, remaining); err != nil {
		log.Warnf("Offline: drain interrupted (%v)", err)
	}

	// Live sample last. If the budget is already gone or a send fails,
	// the sample is queued rather than dropped.
	live, err := publish.LiveMessages(topics, inside, outside, c.cfg.Fahrenheit, c.cfg.PayloadLimit)
	if err != nil {
		log.Errorf("MQTT: live build failed (%v)", err)
		c.enqueue(ring, inside, ts)
		res.Publish = degraded("live build failed")
		return
	}

	for _, m := range live {
		if remaining() <= 0 {
			c.enqueue(ring, inside, ts)
			res.Publish = degraded("publish budget exhausted")
			return
		}
		if err := send(m); err != nil {
			log.Warnf("MQTT: publish failed (%v)", err)
			c.enqueue(ring, inside, ts)
			res.Publish = degraded("publish failed")
			return
		}
	}
	res.Publish = ok()
}

// enqueue stores the unsent sample, if it carries any data.
func (c *Controller) enqueue(ring *queue.Ring, inside sensor.Reading, ts *time.Time) {
	if !inside.HasData() {
		return
	}
	ring.Enqueue(publish.SampleFromReading(inside, ts))
}

// emitDebug publishes the end-of-cycle record, best effort.
func (c *Controller) emitDebug(topics publish.Topics, pub Publisher, res *Result) {
	raw, err := res.Debug.Encode()
	if err != nil {
		return
	}
	c.deps.Log.Zap().Debug("cycle debug", zap.ByteString("debug", raw))

	if pub == nil || !pub.IsConnected() {
		return
	}
	m, err := publish.NewMessage(topics.Debug(), raw, false, c.cfg.PayloadLimit)
	if err != nil {
		return
	}
	if err := pub.Send(m, time.Second); err != nil {
		c.deps.Log.Warnf("MQTT: debug publish failed (%v)", err)
	}
}

func (c *Controller) tempUnit() string {
	if c.cfg.Fahrenheit {
		return "°F"
	}
	return "°C"
}
