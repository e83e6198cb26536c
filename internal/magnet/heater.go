// internal/magnet/heater.go
package magnet

import (
	"context"
	"errors"
	"time"
)

// ErrNoSwitch is returned when a heater operation is requested on a
// supply built without a persistent switch.
var ErrNoSwitch = errors.New("magnet: no persistent switch fitted")

// SetHeater drives the persistent-switch heater to the requested state
// and blocks until the supply reports the thermal transition finished.
//
// Enabling an already-enabled heater (or disabling a disabled one) is a
// no-op: the current state is re-read first, so no duplicate thermal wait
// is triggered. The wait is bounded; a transition that does not confirm
// within Config.HeaterTimeout returns *HeaterTimeoutError and leaves the
// heater state unspecified-but-queryable.
func (d *Driver) SetHeater(ctx context.Context, enable bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setHeaterLocked(ctx, enable)
}

func (d *Driver) setHeaterLocked(ctx context.Context, enable bool) error {
	if !d.cfg.PersistentSwitch {
		return ErrNoSwitch
	}

	current, err := d.HeaterEnabled()
	if err != nil {
		return err
	}
	if current == enable {
		d.log.Debug("heater already in requested state", "enabled", enable)
		return nil
	}

	cmd, transition := "PS 0", StateCoolingSwitch
	if enable {
		cmd, transition = "PS 1", StateHeatingSwitch
	}
	if err := d.link.Send(cmd); err != nil {
		return err
	}
	d.log.Info("switch heater commanded", "enable", enable)

	started := time.Now()
	err = waitWhile(ctx, waitSpec{
		Initial:  d.cfg.InitialDelay,
		Interval: d.cfg.PollInterval,
		Timeout:  d.cfg.HeaterTimeout,
	}, func() (bool, error) {
		state, err := d.RampingState()
		if err != nil {
			return false, err
		}
		return state == transition, nil
	})
	if errors.Is(err, errWaitTimeout) {
		d.obs.HeaterTimedOut()
		return &HeaterTimeoutError{Enable: enable, Waited: d.cfg.HeaterTimeout}
	}
	if err != nil {
		return err
	}

	d.log.Info("switch heater settled", "enable", enable, "took", time.Since(started))
	d.obs.HeaterSwitched(enable, time.Since(started))
	return nil
}
