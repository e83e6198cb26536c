// internal/config/config.go
package config

type Config struct {
	Magnet MagnetConfig  `yaml:"magnet"`
	Source *SourceConfig `yaml:"source"`
}

// ---- LINK ----

type LinkConfig struct {
	Transport string `yaml:"transport"` // tcp | serial | gpib
	Endpoint  string `yaml:"endpoint"`  // tcp host:port
	Device    string `yaml:"device"`    // serial device or gpib controller port
	BaudRate  int    `yaml:"baud_rate"` // serial only
	Address   int    `yaml:"address"`   // gpib primary address
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- MAGNET ----

type MagnetConfig struct {
	Link LinkConfig `yaml:"link"`

	CoilConstant     float64 `yaml:"coil_constant"`      // T/A
	CurrentRating    float64 `yaml:"current_rating"`     // A
	CurrentRampLimit float64 `yaml:"current_ramp_limit"` // A/s
	PersistentSwitch bool    `yaml:"persistent_switch"`

	Wait WaitConfig `yaml:"wait"`
}

// WaitConfig tunes the driver's bounded polling waits.
type WaitConfig struct {
	InitialDelayMs  int `yaml:"initial_delay_ms"`
	PollIntervalMs  int `yaml:"poll_interval_ms"`
	SettleMs        int `yaml:"settle_ms"`
	HeaterTimeoutMs int `yaml:"heater_timeout_ms"`
	RampTimeoutMs   int `yaml:"ramp_timeout_ms"`
}

// ---- SOURCE (optional companion instrument) ----

type SourceConfig struct {
	Link LinkConfig `yaml:"link"`

	Channels       int `yaml:"channels"`
	StatusMaxAgeMs int `yaml:"status_max_age_ms"`
}
