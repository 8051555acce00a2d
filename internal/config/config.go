package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/revolute/internal/multibody"
	"github.com/san-kum/revolute/internal/scalar"
)

const (
	DefaultSamples = 64
	DefaultWorkers = 4
	DefaultSweepTo = 2 * math.Pi
)

var ErrInvalidConfig = errors.New("config: invalid scenario")

// Config describes a scenario: the frames of a tree, the revolute joints
// connecting them, the state and torques applied to each joint and an
// optional angle sweep.
type Config struct {
	Name   string        `yaml:"name"`
	Scalar string        `yaml:"scalar"`
	Frames []string      `yaml:"frames"`
	Joints []JointConfig `yaml:"joints"`
	Sweep  SweepConfig   `yaml:"sweep"`
}

type JointConfig struct {
	Name    string     `yaml:"name"`
	Parent  string     `yaml:"parent"`
	Child   string     `yaml:"child"`
	Axis    [3]float64 `yaml:"axis"`
	Angle   float64    `yaml:"angle"`
	Rate    float64    `yaml:"rate"`
	Torques []float64  `yaml:"torques"`
}

type SweepConfig struct {
	Joint   string  `yaml:"joint"`
	From    float64 `yaml:"from"`
	To      float64 `yaml:"to"`
	Samples int     `yaml:"samples"`
	Workers int     `yaml:"workers"`
}

func defaultSweep() SweepConfig {
	return SweepConfig{
		From:    0,
		To:      DefaultSweepTo,
		Samples: DefaultSamples,
		Workers: DefaultWorkers,
	}
}

// DefaultConfig is a single pin joint about z, parked at zero.
func DefaultConfig() *Config {
	return &Config{
		Name:   "default",
		Scalar: string(scalar.KindReal),
		Frames: []string{"link"},
		Joints: []JointConfig{
			{Name: "pin", Parent: multibody.WorldFrameName, Child: "link", Axis: [3]float64{0, 0, 1}},
		},
		Sweep: defaultSweep(),
	}
}

// Load reads a scenario file. Scalar kind and sweep settings that the file
// leaves out keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{Scalar: string(scalar.KindReal), Sweep: defaultSweep()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Kind() (scalar.Kind, error) {
	return scalar.ParseKind(c.Scalar)
}

// Validate checks names and references. Axis magnitude is left to the joint
// constructor.
func (c *Config) Validate() error {
	if _, err := c.Kind(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(c.Joints) == 0 {
		return fmt.Errorf("%w: no joints", ErrInvalidConfig)
	}

	frames := map[string]bool{multibody.WorldFrameName: true}
	for _, f := range c.Frames {
		if f == "" {
			return fmt.Errorf("%w: empty frame name", ErrInvalidConfig)
		}
		if frames[f] {
			return fmt.Errorf("%w: duplicate frame %q", ErrInvalidConfig, f)
		}
		frames[f] = true
	}

	joints := make(map[string]bool, len(c.Joints))
	for _, j := range c.Joints {
		if j.Name == "" {
			return fmt.Errorf("%w: joint without a name", ErrInvalidConfig)
		}
		if joints[j.Name] {
			return fmt.Errorf("%w: duplicate joint %q", ErrInvalidConfig, j.Name)
		}
		joints[j.Name] = true
		if !frames[j.Parent] {
			return fmt.Errorf("%w: joint %q: unknown parent frame %q", ErrInvalidConfig, j.Name, j.Parent)
		}
		if !frames[j.Child] {
			return fmt.Errorf("%w: joint %q: unknown child frame %q", ErrInvalidConfig, j.Name, j.Child)
		}
	}

	s := c.Sweep
	if s.Joint != "" && !joints[s.Joint] {
		return fmt.Errorf("%w: sweep: unknown joint %q", ErrInvalidConfig, s.Joint)
	}
	if s.Samples < 2 {
		return fmt.Errorf("%w: sweep: need at least 2 samples, got %d", ErrInvalidConfig, s.Samples)
	}
	if s.Workers < 1 {
		return fmt.Errorf("%w: sweep: need at least 1 worker, got %d", ErrInvalidConfig, s.Workers)
	}
	if math.IsNaN(s.From) || math.IsNaN(s.To) || math.IsInf(s.From, 0) || math.IsInf(s.To, 0) {
		return fmt.Errorf("%w: sweep: range must be finite", ErrInvalidConfig)
	}
	return nil
}

// SweepJoint returns the joint to sweep, falling back to the first joint.
func (c *Config) SweepJoint() string {
	if c.Sweep.Joint != "" {
		return c.Sweep.Joint
	}
	if len(c.Joints) == 0 {
		return ""
	}
	return c.Joints[0].Name
}

func (c *Config) Clone() *Config {
	out := *c
	out.Frames = append([]string(nil), c.Frames...)
	out.Joints = make([]JointConfig, len(c.Joints))
	for i, j := range c.Joints {
		j.Torques = append([]float64(nil), j.Torques...)
		out.Joints[i] = j
	}
	return &out
}
