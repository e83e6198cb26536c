// internal/vsource/driver.go

// Package vsource drives the companion multi-channel voltage/current
// source. It is a command-per-channel mapper plus a batched status-table
// reader; no interlock logic lives here.
package vsource

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/qdevlab/magnetctl/internal/logging"
)

// Link is the exact transport contract the source driver uses. The
// batched status reply spans many lines, so plain Query is not enough.
type Link interface {
	Query(cmd string) (string, error)
	Send(cmd string) error
	ReadLine() (string, error)
}

// DefaultChannels is the channel count of the stock instrument.
const DefaultChannels = 48

// DefaultStatusMaxAge is how long a status snapshot stays servable.
const DefaultStatusMaxAge = time.Second

// Config is the immutable instrument description.
type Config struct {
	Channels     int
	StatusMaxAge time.Duration
}

// Driver controls one multi-channel source.
type Driver struct {
	link    Link
	cfg     Config
	log     logging.Logger
	cache   *statusCache
	version string
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver logger.
func WithLogger(l logging.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// New creates a source driver.
func New(link Link, cfg Config, opts ...Option) (*Driver, error) {
	if link == nil {
		return nil, errors.New("vsource: link required")
	}
	if cfg.Channels <= 0 {
		cfg.Channels = DefaultChannels
	}
	if cfg.StatusMaxAge < 0 {
		return nil, errors.New("vsource: status max age must be >= 0")
	}

	d := &Driver{
		link:  link,
		cfg:   cfg,
		log:   logging.Nop(),
		cache: newStatusCache(cfg.StatusMaxAge),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Version returns the instrument firmware version from the last status
// read, or "" before the first one.
func (d *Driver) Version() string { return d.version }

// StatusObserved returns when the cached status table was read.
func (d *Driver) StatusObserved() time.Time { return d.cache.observed() }

func (d *Driver) checkChannel(ch int) error {
	if ch < 1 || ch > d.cfg.Channels {
		return fmt.Errorf("vsource: channel %d out of range 1-%d", ch, d.cfg.Channels)
	}
	return nil
}

// ---- SETPOINTS ----

// SetVoltage sets the output voltage of one channel.
func (d *Driver) SetVoltage(ch int, volts float64) error {
	if err := d.checkChannel(ch); err != nil {
		return err
	}
	if volts < -10 || volts > 10 {
		return fmt.Errorf("vsource: voltage %g outside ±10 V", volts)
	}
	return d.link.Send(fmt.Sprintf("set %d %.6f", ch, volts))
}

// SetVoltageRange selects the ±10 V or ±1 V output range of one channel.
func (d *Driver) SetVoltageRange(ch, fullScale int) error {
	if err := d.checkChannel(ch); err != nil {
		return err
	}
	var code int
	switch fullScale {
	case 10:
		code = 0
	case 1:
		code = 1
	default:
		return fmt.Errorf("vsource: voltage range %d V not supported (10 or 1)", fullScale)
	}
	return d.link.Send(fmt.Sprintf("vol %d %d", ch, code))
}

// SetCurrentRange selects the pA or nA current-measurement range.
func (d *Driver) SetCurrentRange(ch int, rng string) error {
	if err := d.checkChannel(ch); err != nil {
		return err
	}
	var code int
	switch rng {
	case "pA":
		code = 0
	case "nA":
		code = 1
	default:
		return fmt.Errorf("vsource: current range %q not supported (pA or nA)", rng)
	}
	return d.link.Send(fmt.Sprintf("cur %d %d", ch, code))
}

// ---- READBACK ----

// Voltage returns the output voltage of one channel, served from the
// status cache while it is fresh and re-read from the instrument
// otherwise.
func (d *Driver) Voltage(ch int) (float64, error) {
	cs, err := d.channelStatus(ch)
	if err != nil {
		return 0, err
	}
	return cs.Voltage, nil
}

// VoltageRange returns the configured full-scale volts of one channel.
func (d *Driver) VoltageRange(ch int) (int, error) {
	cs, err := d.channelStatus(ch)
	if err != nil {
		return 0, err
	}
	return cs.VoltageRange, nil
}

// CurrentRange returns the configured current range of one channel.
func (d *Driver) CurrentRange(ch int) (string, error) {
	cs, err := d.channelStatus(ch)
	if err != nil {
		return "", err
	}
	return cs.CurrentRange, nil
}

// Current reads the measured output current of one channel in A.
func (d *Driver) Current(ch int) (float64, error) {
	if err := d.checkChannel(ch); err != nil {
		return 0, err
	}
	return d.queryFloat(fmt.Sprintf("get %d", ch))
}

// Temperature reads one board temperature sensor in °C.
func (d *Driver) Temperature(board, sensor int) (float64, error) {
	if board < 0 || board > 5 {
		return 0, fmt.Errorf("vsource: board %d out of range 0-5", board)
	}
	if sensor < 0 || sensor > 2 {
		return 0, fmt.Errorf("vsource: sensor %d out of range 0-2", sensor)
	}
	return d.queryFloat(fmt.Sprintf("tem %d %d", board, sensor))
}

func (d *Driver) channelStatus(ch int) (ChannelStatus, error) {
	if err := d.checkChannel(ch); err != nil {
		return ChannelStatus{}, err
	}
	if !d.cache.fresh(time.Now()) {
		if err := d.RefreshStatus(); err != nil {
			return ChannelStatus{}, err
		}
	}
	cs, ok := d.cache.get(ch)
	if !ok {
		return ChannelStatus{}, fmt.Errorf("vsource: channel %d missing from status table", ch)
	}
	return cs, nil
}

// ---- STATUS TABLE ----

// RefreshStatus reads the full batched status table and replaces the
// cache. The instrument emits the rows in a peculiar order; the read
// finishes once every configured channel has been seen. A truncated
// table surfaces as a transport read error.
func (d *Driver) RefreshStatus() error {
	version, err := d.link.Query("status")
	if err != nil {
		return err
	}
	if !strings.HasPrefix(version, statusVersionPrefix) {
		return fmt.Errorf("vsource: unrecognized version line %q", version)
	}
	d.version = strings.TrimSpace(strings.TrimPrefix(version, statusVersionPrefix))

	header, err := d.link.ReadLine()
	if err != nil {
		return err
	}
	if err := parseStatusHeader(header); err != nil {
		return err
	}

	table := make(map[int]ChannelStatus, d.cfg.Channels)
	for len(table) < d.cfg.Channels {
		line, err := d.link.ReadLine()
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ch, cs, err := parseStatusRow(line)
		if err != nil {
			return err
		}
		if ch < 1 || ch > d.cfg.Channels {
			return fmt.Errorf("vsource: status row for unknown channel %d", ch)
		}
		table[ch] = cs
	}

	d.cache.replace(table, time.Now())
	d.log.Debug("status table refreshed", "channels", len(table), "version", d.version)
	return nil
}

func (d *Driver) queryFloat(cmd string) (float64, error) {
	reply, err := d.link.Query(cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil {
		return 0, fmt.Errorf("vsource: bad %s reply %q: %w", cmd, reply, err)
	}
	return v, nil
}
