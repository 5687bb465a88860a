// internal/timesync/timesync.go
package timesync

import (
	"context"
	"time"

	"github.com/beevik/ntp"

	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/diag"
)

// Result is one sync attempt's outcome. Not synced is not an error: the
// cycle continues and samples carry absent timestamps.
type Result struct {
	Synced bool
	Time   time.Time
	Offset time.Duration
	Err    error
}

// Syncer obtains wall-clock time over SNTP with a bounded timeout.
type Syncer struct {
	host    string
	timeout time.Duration
	log     *diag.Logger

	// query is swappable in tests.
	query func(host string, opt ntp.QueryOptions) (*ntp.Response, error)
}

// New builds a syncer. A zero timeout gets a conservative default.
func New(host string, timeout time.Duration, log *diag.Logger) *Syncer {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Syncer{
		host:    host,
		timeout: timeout,
		log:     log,
		query:   ntp.QueryWithOptions,
	}
}

// Sync performs one bounded SNTP query. The ntp library enforces the
// timeout on its socket, so this never blocks the cycle past it.
func (s *Syncer) Sync(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}

	resp, err := s.query(s.host, ntp.QueryOptions{Timeout: s.timeout})
	if err != nil {
		s.log.Warnf("Time: SNTP sync timeout")
		return Result{Err: err}
	}
	if err := resp.Validate(); err != nil {
		s.log.Warnf("Time: SNTP sync timeout")
		return Result{Err: err}
	}

	s.log.Infof("Time: SNTP sync ok")
	return Result{
		Synced: true,
		Time:   time.Now().Add(resp.ClockOffset),
		Offset: resp.ClockOffset,
	}
}
