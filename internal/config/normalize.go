// internal/config/normalize.go
package config

// Defaults applied by Normalize. Poll cadence matches the supply's
// documented settle behavior.
const (
	DefaultTimeoutMs = 5000
	DefaultBaudRate  = 115200

	DefaultInitialDelayMs  = 500
	DefaultPollIntervalMs  = 300
	DefaultSettleMs        = 2000
	DefaultHeaterTimeoutMs = 120_000
	DefaultRampTimeoutMs   = 1_800_000

	DefaultSourceChannels = 48
	DefaultStatusMaxAgeMs = 1000
	DefaultSourceBaudRate = 480600
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	normalizeLink(&cfg.Magnet.Link, DefaultBaudRate)

	w := &cfg.Magnet.Wait
	if w.InitialDelayMs == 0 {
		w.InitialDelayMs = DefaultInitialDelayMs
	}
	if w.PollIntervalMs == 0 {
		w.PollIntervalMs = DefaultPollIntervalMs
	}
	if w.SettleMs == 0 {
		w.SettleMs = DefaultSettleMs
	}
	if w.HeaterTimeoutMs == 0 {
		w.HeaterTimeoutMs = DefaultHeaterTimeoutMs
	}
	if w.RampTimeoutMs == 0 {
		w.RampTimeoutMs = DefaultRampTimeoutMs
	}

	if cfg.Source == nil {
		return
	}

	// The stock source instrument runs its serial port fast.
	normalizeLink(&cfg.Source.Link, DefaultSourceBaudRate)

	if cfg.Source.Channels == 0 {
		cfg.Source.Channels = DefaultSourceChannels
	}
	if cfg.Source.StatusMaxAgeMs == 0 {
		cfg.Source.StatusMaxAgeMs = DefaultStatusMaxAgeMs
	}
}

func normalizeLink(l *LinkConfig, baud int) {
	if l.TimeoutMs == 0 {
		l.TimeoutMs = DefaultTimeoutMs
	}
	if l.Transport == "serial" && l.BaudRate == 0 {
		l.BaudRate = baud
	}
}
