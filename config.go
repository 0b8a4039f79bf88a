package impulse

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the world-wide simulation options.
type Config struct {
	// Gravity acceleration (m/s², or N/kg)
	Gravity          mgl64.Vec3 `yaml:"gravity"`
	SolverIterations int        `yaml:"solver_iterations"`
	// Substeps splits every Step into that many equal sub-steps; events
	// are flushed once per Step.
	Substeps int `yaml:"substeps"`
	// CellSize of the broadphase grid. 0 picks twice the median body extent
	// every step.
	CellSize float64 `yaml:"cell_size"`

	SleepLinearThreshold  float64 `yaml:"sleep_linear_threshold"`
	SleepAngularThreshold float64 `yaml:"sleep_angular_threshold"`
	TimeToSleep           float64 `yaml:"time_to_sleep"`

	DefaultRestitution float64 `yaml:"default_restitution"`
	DefaultFriction    float64 `yaml:"default_friction"`

	Baumgarte            float64 `yaml:"baumgarte"`
	LinearSlop           float64 `yaml:"linear_slop"`
	RestitutionThreshold float64 `yaml:"restitution_threshold"`
	CCDEpsilon           float64 `yaml:"ccd_epsilon"`
	DisableWarmStart     bool    `yaml:"disable_warm_start"`

	// Workers > 1 runs the narrowphase on that many goroutines.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns the default simulation options.
func DefaultConfig() Config {
	return Config{
		Gravity:               mgl64.Vec3{0, -9.81, 0},
		SolverIterations:      10,
		Substeps:              1,
		SleepLinearThreshold:  0.05,
		SleepAngularThreshold: 0.05,
		TimeToSleep:           0.5,
		DefaultRestitution:    0,
		DefaultFriction:       0.5,
		Baumgarte:             0.2,
		LinearSlop:            0.005,
		RestitutionThreshold:  0.5,
		CCDEpsilon:            0.005,
		Workers:               1,
	}
}

// Validate reports the first invalid option.
func (c Config) Validate() error {
	for i := 0; i < 3; i++ {
		if math.IsNaN(c.Gravity[i]) || math.IsInf(c.Gravity[i], 0) {
			return fmt.Errorf("%w: gravity %v", ErrInvalidConfig, c.Gravity)
		}
	}

	checks := []struct {
		name  string
		value float64
		ok    bool
	}{
		{"solver_iterations", float64(c.SolverIterations), c.SolverIterations >= 1},
		{"substeps", float64(c.Substeps), c.Substeps >= 1},
		{"cell_size", c.CellSize, c.CellSize >= 0},
		{"sleep_linear_threshold", c.SleepLinearThreshold, c.SleepLinearThreshold >= 0},
		{"sleep_angular_threshold", c.SleepAngularThreshold, c.SleepAngularThreshold >= 0},
		{"time_to_sleep", c.TimeToSleep, c.TimeToSleep >= 0},
		{"default_restitution", c.DefaultRestitution, c.DefaultRestitution >= 0 && c.DefaultRestitution <= 1},
		{"default_friction", c.DefaultFriction, c.DefaultFriction >= 0},
		{"baumgarte", c.Baumgarte, c.Baumgarte >= 0 && c.Baumgarte <= 1},
		{"linear_slop", c.LinearSlop, c.LinearSlop >= 0},
		{"restitution_threshold", c.RestitutionThreshold, c.RestitutionThreshold >= 0},
		{"ccd_epsilon", c.CCDEpsilon, c.CCDEpsilon >= 0},
		{"workers", float64(c.Workers), c.Workers >= 1},
	}
	for _, check := range checks {
		if !check.ok || math.IsNaN(check.value) {
			return fmt.Errorf("%w: %s = %v", ErrInvalidConfig, check.name, check.value)
		}
	}
	return nil
}

// ParseConfig decodes YAML on top of DefaultConfig, so omitted keys keep
// their default.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return ParseConfig(data)
}
