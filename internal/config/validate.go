// internal/config/validate.go
package config

import (
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// MAGNET
	// ------------------------------------------------------------

	m := cfg.Magnet

	if m.CoilConstant <= 0 {
		return fmt.Errorf("config: magnet.coil_constant must be > 0, got %g", m.CoilConstant)
	}
	if m.CurrentRating <= 0 {
		return fmt.Errorf("config: magnet.current_rating must be > 0, got %g", m.CurrentRating)
	}
	if m.CurrentRampLimit <= 0 {
		return fmt.Errorf("config: magnet.current_ramp_limit must be > 0, got %g", m.CurrentRampLimit)
	}

	if err := validateLink("magnet", m.Link); err != nil {
		return err
	}

	if err := validateWait(m.Wait); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// SOURCE (OPT-IN)
	// ------------------------------------------------------------

	if cfg.Source == nil {
		return nil
	}
	s := cfg.Source

	if err := validateLink("source", s.Link); err != nil {
		return err
	}
	// The source's batched status reply needs line-by-line reads; the
	// gpib adapter cannot provide them.
	if s.Link.Transport == "gpib" {
		return fmt.Errorf("config: source.link.transport gpib not supported")
	}

	if s.Channels < 0 {
		return fmt.Errorf("config: source.channels must be >= 0, got %d", s.Channels)
	}
	if s.StatusMaxAgeMs < 0 {
		return fmt.Errorf("config: source.status_max_age_ms must be >= 0, got %d", s.StatusMaxAgeMs)
	}

	return nil
}

func validateLink(section string, l LinkConfig) error {
	switch l.Transport {
	case "tcp":
		if l.Endpoint == "" {
			return fmt.Errorf("config: %s.link.endpoint required for tcp", section)
		}
	case "serial":
		if l.Device == "" {
			return fmt.Errorf("config: %s.link.device required for serial", section)
		}
		if l.BaudRate < 0 {
			return fmt.Errorf("config: %s.link.baud_rate must be >= 0", section)
		}
	case "gpib":
		if l.Device == "" {
			return fmt.Errorf("config: %s.link.device required for gpib", section)
		}
		if l.Address < 0 || l.Address > 30 {
			return fmt.Errorf("config: %s.link.address must be 0-30, got %d", section, l.Address)
		}
	case "":
		return fmt.Errorf("config: %s.link.transport required", section)
	default:
		return fmt.Errorf("config: %s.link.transport %q unknown (tcp, serial, gpib)", section, l.Transport)
	}

	if l.TimeoutMs < 0 {
		return fmt.Errorf("config: %s.link.timeout_ms must be >= 0", section)
	}
	return nil
}

func validateWait(w WaitConfig) error {
	for name, v := range map[string]int{
		"initial_delay_ms":  w.InitialDelayMs,
		"poll_interval_ms":  w.PollIntervalMs,
		"settle_ms":         w.SettleMs,
		"heater_timeout_ms": w.HeaterTimeoutMs,
		"ramp_timeout_ms":   w.RampTimeoutMs,
	} {
		if v < 0 {
			return fmt.Errorf("config: magnet.wait.%s must be >= 0, got %d", name, v)
		}
	}
	return nil
}
