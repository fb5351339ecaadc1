package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/tempo/demo/bounce"
	"github.com/sarchlab/tempo/fixed"
	"github.com/sarchlab/tempo/path"
	"github.com/sarchlab/tempo/timing"
)

// Point is a 2D point in a scenario file.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (p Point) vec() path.Vec2 {
	return path.Vec2{X: fixed.FromFloat(p.X), Y: fixed.FromFloat(p.Y)}
}

// Scenario is the YAML description of a bounce run. Times are in seconds.
type Scenario struct {
	Box         Point     `yaml:"box"`
	Start       Point     `yaml:"start"`
	Velocity    Point     `yaml:"velocity"`
	ServeAt     float64   `yaml:"serve_at"`
	Duration    float64   `yaml:"duration"`
	FrameRate   uint64    `yaml:"frame_rate"`
	PlanEvery   int64     `yaml:"plan_every"`
	PlanLatency int64     `yaml:"plan_latency"`
	Paddle      Point     `yaml:"paddle"`
	PaddleSpeed float64   `yaml:"paddle_speed"`
	Nudges      []float64 `yaml:"nudges"`

	Strict             bool   `yaml:"strict"`
	MaxSameTimeFirings int    `yaml:"max_same_time_firings"`
	Workers            int    `yaml:"workers"`
	Output             string `yaml:"output"`
	MonitorPort        int    `yaml:"monitor_port"`
}

// DefaultScenario mirrors bounce.DefaultConfig.
func DefaultScenario() Scenario {
	c := bounce.DefaultConfig()

	return Scenario{
		Box:         Point{X: c.Box.Size.X.Float64(), Y: c.Box.Size.Y.Float64()},
		Start:       Point{X: c.Start.X.Float64(), Y: c.Start.Y.Float64()},
		Velocity:    Point{X: c.Velocity.X.Float64(), Y: c.Velocity.Y.Float64()},
		ServeAt:     c.ServeAt.Seconds(),
		Duration:    c.Duration.Seconds(),
		FrameRate:   uint64(c.FrameRate),
		PlanEvery:   c.PlanEvery,
		PlanLatency: c.PlanLatency,
		PaddleSpeed: c.PaddleSpeed.Float64(),
	}
}

// LoadScenario reads a scenario file. Fields missing from the file keep
// their default values.
func LoadScenario(filename string) (Scenario, error) {
	s := DefaultScenario()

	data, err := os.ReadFile(filename)
	if err != nil {
		return s, err
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("scenario %s: %w", filename, err)
	}

	return s, nil
}

// Config converts the scenario into a bounce configuration.
func (s Scenario) Config() bounce.Config {
	c := bounce.Config{
		Box:         bounce.Box{Size: s.Box.vec()},
		Start:       s.Start.vec(),
		Velocity:    s.Velocity.vec(),
		ServeAt:     timing.FromSeconds(s.ServeAt),
		Duration:    timing.FromSeconds(s.Duration),
		FrameRate:   timing.FreqInHz(s.FrameRate),
		PlanEvery:   s.PlanEvery,
		PlanLatency: s.PlanLatency,
		PaddleStart: s.Paddle.vec(),
		PaddleSpeed: fixed.FromFloat(s.PaddleSpeed),
		Finder:      path.Straight{},
	}

	for _, n := range s.Nudges {
		c.Nudges = append(c.Nudges, timing.FromSeconds(n))
	}

	return c
}
