// Package config holds the inverter application settings and turns them into
// driver and generator configurations.
package config

import (
	"os"

	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"go.uber.org/multierr"

	"eflexpwm/core"
	"eflexpwm/spwm"
)

var ErrInvalid = errors.New("invalid inverter configuration")

// LegConfig is one complementary output pair
type LegConfig struct {
	PinA uint32 `json:"pin_a"`
	PinB uint32 `json:"pin_b"`
}

type ReferenceConfig struct {
	FrequencyHz  float32 `json:"frequency_hz"`
	AmplitudePct float32 `json:"amplitude_pct"` // of the half swing
	MidpointPct  float32 `json:"midpoint_pct"`
}

type SweepConfig struct {
	Enabled    bool    `json:"enabled"`
	MinHz      float32 `json:"min_hz"`
	MaxHz      float32 `json:"max_hz"`
	StepHz     float32 `json:"step_hz"`
	IntervalMs uint32  `json:"interval_ms"`
}

type FaultInputConfig struct {
	Enabled      bool   `json:"enabled"`
	Index        uint8  `json:"index"`
	XBarInput    *int   `json:"xbar_input"` // nil leaves the fault pin unrouted
	ActiveHigh   bool   `json:"active_high"`
	Clearing     string `json:"clearing"` // automatic, manual, safety
	Recovery     string `json:"recovery"` // none, half, full, both
	FilterCount  uint8  `json:"filter_count"`
	FilterPeriod uint8  `json:"filter_period"`
}

type TelemetryConfig struct {
	IntervalMs uint32 `json:"interval_ms"`
}

// SenseConfig is the INA260 on the output
type SenseConfig struct {
	Enabled       bool   `json:"enabled"`
	SampleMs      uint32 `json:"sample_ms"`
	TripMilliAmps int32  `json:"trip_milliamps"`
}

type InverterConfig struct {
	Legs           []LegConfig      `json:"legs"`
	PwmFrequencyHz uint32           `json:"pwm_frequency_hz"`
	Alignment      string           `json:"alignment"`
	Prescale       uint32           `json:"prescale"` // divider 1..128
	DeadtimeNs     uint32           `json:"deadtime_ns"`
	Reference      ReferenceConfig  `json:"reference"`
	Sweep          SweepConfig      `json:"sweep"`
	Fault          FaultInputConfig `json:"fault"`
	Telemetry      TelemetryConfig  `json:"telemetry"`
	Sense          SenseConfig      `json:"sense"`
	Debug          bool             `json:"debug"`
}

// Load parses a JSON5 document, fills in defaults and validates the result
func Load(data []byte) (*InverterConfig, error) {
	var config InverterConfig
	if err := json5.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(err, "parse inverter config")
	}
	applyDefaults(&config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func LoadFile(path string) (*InverterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read inverter config")
	}
	return Load(data)
}

func applyDefaults(config *InverterConfig) {
	if len(config.Legs) == 0 {
		config.Legs = []LegConfig{{PinA: 4, PinB: 33}, {PinA: 6, PinB: 9}}
	}
	if config.PwmFrequencyHz == 0 {
		config.PwmFrequencyHz = 20000
	}
	if config.Alignment == "" {
		config.Alignment = "signed_center"
	}
	if config.Prescale == 0 {
		config.Prescale = 1
	}
	if config.DeadtimeNs == 0 {
		config.DeadtimeNs = 500
	}

	if config.Reference.FrequencyHz == 0 {
		config.Reference.FrequencyHz = 50
	}
	if config.Reference.AmplitudePct == 0 {
		config.Reference.AmplitudePct = 90
	}
	if config.Reference.MidpointPct == 0 {
		config.Reference.MidpointPct = 50
	}

	if config.Sweep.MinHz == 0 {
		config.Sweep.MinHz = 10
	}
	if config.Sweep.MaxHz == 0 {
		config.Sweep.MaxHz = 100
	}
	if config.Sweep.StepHz == 0 {
		config.Sweep.StepHz = 10
	}
	if config.Sweep.IntervalMs == 0 {
		config.Sweep.IntervalMs = 1000
	}

	if config.Fault.Clearing == "" {
		config.Fault.Clearing = "automatic"
	}
	if config.Fault.Recovery == "" {
		config.Fault.Recovery = "full"
	}

	if config.Telemetry.IntervalMs == 0 {
		config.Telemetry.IntervalMs = 250
	}
	if config.Sense.SampleMs == 0 {
		config.Sense.SampleMs = 10
	}
	if config.Sense.TripMilliAmps == 0 {
		config.Sense.TripMilliAmps = 10000
	}
}

// Default is the configuration of an empty document
func Default() *InverterConfig {
	var config InverterConfig
	applyDefaults(&config)
	return &config
}

var alignments = map[string]core.Alignment{
	"signed_center": core.AlignSignedCenter,
	"center":        core.AlignCenter,
	"signed_edge":   core.AlignSignedEdge,
	"edge":          core.AlignEdge,
}

var clearings = map[string]core.FaultClearing{
	"automatic": core.FaultClearAutomatic,
	"manual":    core.FaultClearManualNormal,
	"safety":    core.FaultClearManualSafety,
}

var recoveries = map[string]core.FaultRecovery{
	"none": core.FaultRecoverNone,
	"half": core.FaultRecoverHalfCycle,
	"full": core.FaultRecoverFullCycle,
	"both": core.FaultRecoverHalfAndFullCycle,
}

func prescaleOf(divider uint32) (core.Prescale, bool) {
	for p := core.PrescaleDivide1; p <= core.PrescaleDivide128; p++ {
		if p.Divider() == divider {
			return p, true
		}
	}
	return 0, false
}

// Validate reports every problem at once
func (c *InverterConfig) Validate() error {
	var err error
	fail := func(format string, args ...interface{}) {
		err = multierr.Append(err, errors.Wrapf(ErrInvalid, format, args...))
	}

	if len(c.Legs) != 2 {
		fail("need 2 legs, got %d", len(c.Legs))
	}
	if _, ok := alignments[c.Alignment]; !ok {
		fail("alignment %q", c.Alignment)
	}
	if _, ok := prescaleOf(c.Prescale); !ok {
		fail("prescale %d is not a power of two up to 128", c.Prescale)
	}
	if c.DeadtimeNs > 10000 {
		fail("dead time %d ns over 10 us", c.DeadtimeNs)
	}

	r := c.Reference
	if r.FrequencyHz < 0 || r.FrequencyHz > float32(c.PwmFrequencyHz)/2 {
		fail("reference %g Hz", r.FrequencyHz)
	}
	if r.MidpointPct <= 0 || r.MidpointPct >= 100 {
		fail("midpoint %g%%", r.MidpointPct)
	}
	if r.AmplitudePct <= 0 || r.AmplitudePct > 100 {
		fail("amplitude %g%%", r.AmplitudePct)
	}

	if c.Sweep.Enabled {
		s := spwm.Sweep{Min: c.Sweep.MinHz, Max: c.Sweep.MaxHz, Step: c.Sweep.StepHz}
		if e := s.ValidateFor(c.PwmFrequencyHz); e != nil {
			err = multierr.Append(err, e)
		}
	}

	if c.Fault.Enabled {
		if c.Fault.Index >= core.NumFaults || c.Fault.Index%2 != 0 {
			fail("fault index %d, only 0 or 2 can be routed", c.Fault.Index)
		}
		if c.Fault.XBarInput != nil && (*c.Fault.XBarInput < 0 || *c.Fault.XBarInput >= int(core.NoXBarInput)) {
			fail("xbar input %d", *c.Fault.XBarInput)
		}
		if _, ok := clearings[c.Fault.Clearing]; !ok {
			fail("fault clearing %q", c.Fault.Clearing)
		}
		if _, ok := recoveries[c.Fault.Recovery]; !ok {
			fail("fault recovery %q", c.Fault.Recovery)
		}
		if c.Fault.FilterCount > 7 {
			fail("filter count %d", c.Fault.FilterCount)
		}
	}
	return err
}

// Pins returns the A and B pins of each leg
func (c *InverterConfig) Pins() [][2]core.PWMPin {
	pins := make([][2]core.PWMPin, len(c.Legs))
	for i, l := range c.Legs {
		pins[i] = [2]core.PWMPin{core.PWMPin(l.PinA), core.PWMPin(l.PinB)}
	}
	return pins
}

// PWMConfig is the submodule configuration of every leg: complementary on A,
// full cycle reloads
func (c *InverterConfig) PWMConfig() core.Config {
	p, _ := prescaleOf(c.Prescale)
	return core.DefaultConfig().
		WithPairOperation(core.ComplementaryPwmA).
		WithFrequency(c.PwmFrequencyHz).
		WithAlignment(alignments[c.Alignment]).
		WithPrescale(p)
}

// FaultConfig returns the fault unit setup and the cross-bar input to route
func (c *InverterConfig) FaultConfig() (core.FaultConfig, core.XBarInput) {
	f := core.DefaultFaultConfig()
	f.ActiveHigh = c.Fault.ActiveHigh
	f.ClearingMode = clearings[c.Fault.Clearing]
	f.RecoverMode = recoveries[c.Fault.Recovery]
	f.FilterCount = c.Fault.FilterCount
	f.FilterPeriod = c.Fault.FilterPeriod

	input := core.NoXBarInput
	if c.Fault.XBarInput != nil {
		input = core.XBarInput(*c.Fault.XBarInput)
	}
	return f, input
}

func (c *InverterConfig) GeneratorConfig() spwm.Config {
	half := float32(core.DutyCycleMax) / 2
	mid := float32(core.DutyCycleMax) * c.Reference.MidpointPct / 100
	amp := half * c.Reference.AmplitudePct / 100
	// keep the swing inside the duty range when the midpoint is off center
	if amp > mid {
		amp = mid
	}
	if amp > float32(core.DutyCycleMax)-mid {
		amp = float32(core.DutyCycleMax) - mid
	}
	return spwm.Config{
		PwmFrequencyHz: c.PwmFrequencyHz,
		ReferenceHz:    c.Reference.FrequencyHz,
		Midpoint:       uint16(mid),
		Amplitude:      uint16(amp),
		Flag:           core.StatusReload,
	}
}

func (c *InverterConfig) SweepRange() spwm.Sweep {
	return spwm.Sweep{Min: c.Sweep.MinHz, Max: c.Sweep.MaxHz, Step: c.Sweep.StepHz}
}
