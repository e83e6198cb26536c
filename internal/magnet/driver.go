// internal/magnet/driver.go
package magnet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/qdevlab/magnetctl/internal/logging"
)

// Link is the exact transport contract the driver uses.
// IMPORTANT: There must be NO other version of this interface anywhere.
// Transport errors pass through the driver unchanged; retry policy, if
// any, belongs to the transport.
type Link interface {
	Query(cmd string) (string, error)
	Send(cmd string) error
}

// ---- CONFIG ----

// Default wait cadences. Initial delay and poll interval follow the
// supply's documented settle behavior; the timeouts bound waits the
// reference driver left unbounded.
const (
	DefaultInitialDelay  = 500 * time.Millisecond
	DefaultPollInterval  = 300 * time.Millisecond
	DefaultSettleDelay   = 2 * time.Second
	DefaultHeaterTimeout = 2 * time.Minute
	DefaultRampTimeout   = 30 * time.Minute
)

// Config is the immutable magnet description, fixed at construction.
type Config struct {
	CoilConstant     float64 // T/A
	CurrentRating    float64 // A
	CurrentRampLimit float64 // A/s
	PersistentSwitch bool

	InitialDelay  time.Duration
	PollInterval  time.Duration
	SettleDelay   time.Duration
	HeaterTimeout time.Duration
	RampTimeout   time.Duration
}

// FieldRating is the maximum safe field magnitude in T.
func (c Config) FieldRating() float64 {
	return c.CoilConstant * c.CurrentRating
}

// RampRateLimit is the maximum ramp rate magnitude in T/s.
func (c Config) RampRateLimit() float64 {
	return c.CoilConstant * c.CurrentRampLimit
}

// ---- DRIVER ----

// Driver controls one magnet power supply over a synchronous link.
//
// The physical magnet is a single exclusively-owned resource: every
// operation that writes to the supply runs under the driver mutex, so two
// callers can never interleave pause/target/ramp commands.
type Driver struct {
	mu   sync.Mutex
	link Link
	cfg  Config
	log  logging.Logger
	obs  Observer
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver logger.
func WithLogger(l logging.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithObserver sets the driver event observer.
func WithObserver(o Observer) Option {
	return func(d *Driver) { d.obs = o }
}

// New creates a driver with immutable magnet config.
func New(link Link, cfg Config, opts ...Option) (*Driver, error) {
	if link == nil {
		return nil, errors.New("magnet: link required")
	}
	if cfg.CoilConstant <= 0 {
		return nil, errors.New("magnet: coil constant must be > 0")
	}
	if cfg.CurrentRating <= 0 {
		return nil, errors.New("magnet: current rating must be > 0")
	}
	if cfg.CurrentRampLimit <= 0 {
		return nil, errors.New("magnet: current ramp limit must be > 0")
	}

	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.HeaterTimeout <= 0 {
		cfg.HeaterTimeout = DefaultHeaterTimeout
	}
	if cfg.RampTimeout <= 0 {
		cfg.RampTimeout = DefaultRampTimeout
	}

	d := &Driver{
		link: link,
		cfg:  cfg,
		log:  logging.Nop(),
		obs:  nopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns the magnet description the driver was built with.
func (d *Driver) Config() Config { return d.cfg }

// ---- READBACK ----

// Field reads the current field in T.
func (d *Driver) Field() (float64, error) {
	return d.queryFloat("FIELD:MAG?")
}

// Setpoint reads the current ramp target in T.
func (d *Driver) Setpoint() (float64, error) {
	return d.queryFloat("FIELD:TARG?")
}

// RampingState reads the live supply condition.
func (d *Driver) RampingState() (RampState, error) {
	reply, err := d.link.Query("STATE?")
	if err != nil {
		return 0, err
	}
	return decodeState(reply)
}

// Quenched reads the quench flag.
func (d *Driver) Quenched() (bool, error) {
	return d.queryFlag("QU?")
}

// PersistentMode reports whether the magnet is in persistent mode.
func (d *Driver) PersistentMode() (bool, error) {
	return d.queryFlag("PERS?")
}

// HeaterEnabled reads the persistent-switch heater flag.
func (d *Driver) HeaterEnabled() (bool, error) {
	return d.queryFlag("PS?")
}

// LastError reads the supply's own error queue.
func (d *Driver) LastError() (string, error) {
	reply, err := d.link.Query("SYST:ERR?")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// safetyStatus reads the four interlock facts live, in one snapshot.
// The heater flag only exists on supplies fitted with a switch.
func (d *Driver) safetyStatus() (SafetyStatus, error) {
	var s SafetyStatus
	var err error

	if s.Quenched, err = d.Quenched(); err != nil {
		return s, err
	}
	if d.cfg.PersistentSwitch {
		if s.PersistentMode, err = d.PersistentMode(); err != nil {
			return s, err
		}
		if s.HeaterEnabled, err = d.HeaterEnabled(); err != nil {
			return s, err
		}
	}
	if s.State, err = d.RampingState(); err != nil {
		return s, err
	}
	return s, nil
}

// ---- RAMP RATE ----

// RampRate reads the configured ramp rate in T/s. The supply reports a
// comma-separated pair; the first field is the rate.
func (d *Driver) RampRate() (float64, error) {
	reply, err := d.link.Query("RAMP:RATE:FIELD:1?")
	if err != nil {
		return 0, err
	}
	first := strings.SplitN(reply, ",", 2)[0]
	rate, err := strconv.ParseFloat(strings.TrimSpace(first), 64)
	if err != nil {
		return 0, fmt.Errorf("magnet: bad ramp rate reply %q: %w", reply, err)
	}
	return rate, nil
}

// SetRampRate configures the ramp rate in T/s. The rate is encoded
// jointly with the field rating on the wire; for a fixed rating the pair
// round-trips through RampRate.
func (d *Driver) SetRampRate(rate float64) error {
	if limit := d.cfg.RampRateLimit(); rate < -limit || rate > limit {
		return &RangeError{Kind: "ramp rate", Value: rate, Limit: limit}
	}
	return d.link.Send(fmt.Sprintf("CONF:RAMP:RATE:FIELD 1,%g%g", rate, d.cfg.FieldRating()))
}

// ---- SUPPLY COMMANDS ----

// Pause stops the supply at its present output.
func (d *Driver) Pause() error { return d.link.Send("PAUSE") }

// Ramp starts ramping toward the configured target.
func (d *Driver) Ramp() error { return d.link.Send("RAMP") }

// Zero ramps the supply output to zero current.
func (d *Driver) Zero() error { return d.link.Send("ZERO") }

// ResetQuench clears the quench flag.
func (d *Driver) ResetQuench() error { return d.link.Send("QU 0") }

// ForceQuench force-sets the quench flag.
func (d *Driver) ForceQuench() error { return d.link.Send("QU 1") }

// ---- RAMPING ----

// RampTo validates and initiates a ramp to target (T) and returns as soon
// as the ramp command is issued. The caller polls RampingState or
// Setpoint if it needs completion notice.
func (d *Driver) RampTo(ctx context.Context, target float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.beginRamp(ctx, target)
}

// SetField validates and initiates a ramp to target (T), then blocks
// until the supply leaves the ramping condition. A ramp that settles into
// holding is paused and reported as success; any other terminal state is
// returned as *RampEndError with the observed state.
func (d *Driver) SetField(ctx context.Context, target float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.beginRamp(ctx, target); err != nil {
		return err
	}
	started := time.Now()

	err := waitWhile(ctx, waitSpec{
		Initial:  d.cfg.InitialDelay,
		Interval: d.cfg.PollInterval,
		Timeout:  d.cfg.RampTimeout,
	}, func() (bool, error) {
		state, err := d.RampingState()
		if err != nil {
			return false, err
		}
		return state == StateRamping, nil
	})
	if errors.Is(err, errWaitTimeout) {
		return ErrRampTimeout
	}
	if err != nil {
		return err
	}

	// Let the output settle before judging the terminal state.
	if err := sleepCtx(ctx, d.cfg.SettleDelay); err != nil {
		return err
	}

	state, err := d.RampingState()
	if err != nil {
		return err
	}
	if state != StateHolding {
		d.log.Warn("ramp ended abnormally", "state", state.String())
		d.obs.RampAbnormal(state)
		return &RampEndError{State: state}
	}

	if err := d.Pause(); err != nil {
		return err
	}
	d.log.Info("ramp complete", "target", target, "took", time.Since(started))
	d.obs.RampCompleted(time.Since(started))
	return nil
}

// beginRamp is the shared initiation sequence: validate, gate, pause,
// set target, ensure heater, ramp. Strictly sequential; the caller must
// hold the driver mutex.
func (d *Driver) beginRamp(ctx context.Context, target float64) error {
	if rating := d.cfg.FieldRating(); target < -rating || target > rating {
		return &RangeError{Kind: "field", Value: target, Limit: rating}
	}

	status, err := d.safetyStatus()
	if err != nil {
		return err
	}
	if !CanStartRamping(status, d.cfg.PersistentSwitch) {
		d.log.Warn("ramp rejected by interlock",
			"quenched", status.Quenched,
			"persistent_mode", status.PersistentMode,
			"heater_enabled", status.HeaterEnabled,
			"state", status.State.String())
		d.obs.InterlockRejected()
		return ErrInterlocked
	}

	// No stale ramp may be in flight while the target changes.
	if err := d.Pause(); err != nil {
		return err
	}
	if err := d.link.Send(fmt.Sprintf("CONF:FIELD:TARG %g", target)); err != nil {
		return err
	}

	if d.cfg.PersistentSwitch {
		if err := d.setHeaterLocked(ctx, true); err != nil {
			return err
		}
	}

	if err := d.Ramp(); err != nil {
		return err
	}
	d.log.Info("ramp started", "target", target)
	d.obs.RampStarted()
	return nil
}

// ---- HELPERS ----

func (d *Driver) queryFloat(cmd string) (float64, error) {
	reply, err := d.link.Query(cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil {
		return 0, fmt.Errorf("magnet: bad %s reply %q: %w", cmd, reply, err)
	}
	return v, nil
}

func (d *Driver) queryFlag(cmd string) (bool, error) {
	reply, err := d.link.Query(cmd)
	if err != nil {
		return false, err
	}
	return decodeFlag(reply)
}
