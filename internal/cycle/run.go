// internal/cycle/run.go
package cycle

import (
	"context"
	"time"
)

// Sleeper arms the wake source and suspends. The host implementation is a
// plain timer sleep; on real hardware this is the deep-sleep call and
// never returns.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Run loops wake episodes until the context ends. A diagnostic cycle holds
// awake indefinitely for inspection; bench mode (sleep disabled) runs
// cycles back to back.
func (c *Controller) Run(ctx context.Context, sleeper Sleeper) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := c.RunCycle(ctx)

		if res.State == StateDiagnostic {
			// Crash-loop breaker: hold with radios up until an operator
			// intervenes or the process is stopped.
			<-ctx.Done()
			return ctx.Err()
		}

		if c.cfg.SleepDisabled {
			continue
		}
		if err := sleeper.Sleep(ctx, res.Sleep); err != nil {
			return err
		}
	}
}
