package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz      int     `yaml:"tick_rate_hz"`
	Seed            uint64  `yaml:"seed"`
	StartingBalance int64   `yaml:"starting_balance"`
	PlayerSpeed     float64 `yaml:"player_speed"`
	RespawnTicks    int     `yaml:"respawn_ticks"`

	Phases            PhaseThresholds `yaml:"phase_thresholds"`
	Crank             Crank           `yaml:"crank"`
	WheelUpgradeCosts []int64         `yaml:"wheel_upgrade_costs"`

	TelemetryEveryTicks int        `yaml:"telemetry_every_ticks"`
	RateLimits          RateLimits `yaml:"rate_limits"`
}

// PhaseThresholds are completed-building counts that advance the phase.
type PhaseThresholds struct {
	Outpost int `yaml:"outpost"`
	Village int `yaml:"village"`
	Network int `yaml:"network"`
	City    int `yaml:"city"`
}

type Crank struct {
	MaxHeat           float64 `yaml:"max_heat"`
	HeatRate          float64 `yaml:"heat_rate"`
	CoolRate          float64 `yaml:"cool_rate"`
	TokensPerRotation float64 `yaml:"tokens_per_rotation"`
}

type RateLimits struct {
	InputsPerSecond float64 `yaml:"inputs_per_second"`
	InputBurst      int     `yaml:"input_burst"`
}

// Defaults returns the built-in tuning.
func Defaults() Tuning {
	var t Tuning
	t.applyDefaults()
	return t
}

func (t *Tuning) applyDefaults() {
	if t.ProtocolVersion == "" {
		t.ProtocolVersion = "1.0"
	}
	if t.TickRateHz == 0 {
		t.TickRateHz = 20
	}
	if t.Seed == 0 {
		t.Seed = 1337
	}
	if t.PlayerSpeed == 0 {
		t.PlayerSpeed = 2.5
	}
	if t.RespawnTicks == 0 {
		t.RespawnTicks = 100
	}
	if t.Phases == (PhaseThresholds{}) {
		t.Phases = PhaseThresholds{Outpost: 3, Village: 6, Network: 10, City: 15}
	}
	if t.Crank.MaxHeat == 0 {
		t.Crank.MaxHeat = 100
	}
	if t.Crank.HeatRate == 0 {
		t.Crank.HeatRate = 1
	}
	if t.Crank.CoolRate == 0 {
		t.Crank.CoolRate = 0.5
	}
	if t.Crank.TokensPerRotation == 0 {
		t.Crank.TokensPerRotation = 0.02
	}
	if len(t.WheelUpgradeCosts) == 0 {
		t.WheelUpgradeCosts = []int64{25, 75, 200}
	}
	if t.TelemetryEveryTicks == 0 {
		t.TelemetryEveryTicks = t.TickRateHz
	}
	if t.RateLimits.InputsPerSecond == 0 {
		t.RateLimits.InputsPerSecond = 60
	}
	if t.RateLimits.InputBurst == 0 {
		t.RateLimits.InputBurst = 30
	}
}

// Validate rejects tunings the simulation cannot run with.
func (t Tuning) Validate() error {
	var errs []error
	if t.TickRateHz <= 0 || t.TickRateHz > 200 {
		errs = append(errs, fmt.Errorf("tick_rate_hz out of range: %d", t.TickRateHz))
	}
	if t.StartingBalance < 0 {
		errs = append(errs, fmt.Errorf("starting_balance must not be negative"))
	}
	if t.PlayerSpeed <= 0 {
		errs = append(errs, fmt.Errorf("player_speed must be positive"))
	}
	p := t.Phases
	if !(0 < p.Outpost && p.Outpost < p.Village && p.Village < p.Network && p.Network < p.City) {
		errs = append(errs, fmt.Errorf("phase_thresholds must be positive and strictly increasing: %+v", p))
	}
	if t.Crank.MaxHeat <= 0 || t.Crank.HeatRate <= 0 || t.Crank.CoolRate <= 0 {
		errs = append(errs, fmt.Errorf("crank heat parameters must be positive: %+v", t.Crank))
	}
	if len(t.WheelUpgradeCosts) != 3 {
		errs = append(errs, fmt.Errorf("wheel_upgrade_costs needs 3 entries, got %d", len(t.WheelUpgradeCosts)))
	}
	if t.RateLimits.InputsPerSecond <= 0 || t.RateLimits.InputBurst <= 0 {
		errs = append(errs, fmt.Errorf("rate_limits must be positive: %+v", t.RateLimits))
	}
	return errors.Join(errs...)
}

// Load reads a tuning file, fills omitted fields with defaults and
// validates the result.
func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.applyDefaults()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
