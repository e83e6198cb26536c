// internal/magnet/wait.go
package magnet

import (
	"context"
	"errors"
	"time"
)

// errWaitTimeout marks a bounded wait that expired. Callers translate it
// into their own typed error before it leaves the package.
var errWaitTimeout = errors.New("magnet: wait timed out")

// waitSpec describes one bounded poll-wait: an initial settle delay, the
// poll cadence, and a hard upper bound.
type waitSpec struct {
	Initial  time.Duration
	Interval time.Duration
	Timeout  time.Duration
}

// waitWhile polls cond at the spec cadence until cond reports false,
// the context is cancelled, or the timeout elapses. cond errors abort
// the wait immediately.
//
// This replaces the fixed sleep loops of the reference driver; a hung
// hardware transition now surfaces as errWaitTimeout instead of
// blocking forever.
func waitWhile(ctx context.Context, spec waitSpec, cond func() (bool, error)) error {
	deadline := time.NewTimer(spec.Timeout)
	defer deadline.Stop()

	if err := sleepCtx(ctx, spec.Initial); err != nil {
		return err
	}

	ticker := time.NewTicker(spec.Interval)
	defer ticker.Stop()

	for {
		ongoing, err := cond()
		if err != nil {
			return err
		}
		if !ongoing {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return errWaitTimeout
		case <-ticker.C:
		}
	}
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
