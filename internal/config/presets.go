package config

import (
	"slices"

	"github.com/san-kum/revolute/internal/multibody"
)

var Presets = map[string]*Config{
	"single": {
		Name: "single", Scalar: "real",
		Frames: []string{"link"},
		Joints: []JointConfig{
			{Name: "pin", Parent: multibody.WorldFrameName, Child: "link", Axis: [3]float64{0, 0, 2}, Angle: 1.5708, Torques: []float64{3, -1}},
		},
		Sweep: SweepConfig{Joint: "pin", To: DefaultSweepTo, Samples: DefaultSamples, Workers: DefaultWorkers},
	},
	"double": {
		Name: "double", Scalar: "real",
		Frames: []string{"upper", "lower"},
		Joints: []JointConfig{
			{Name: "shoulder", Parent: multibody.WorldFrameName, Child: "upper", Axis: [3]float64{0, 0, 1}, Angle: 0.5, Torques: []float64{1.5}},
			{Name: "elbow", Parent: "upper", Child: "lower", Axis: [3]float64{0, 0, 1}, Angle: -0.25, Rate: 2, Torques: []float64{-0.5, 0.25}},
		},
		Sweep: SweepConfig{Joint: "elbow", From: -3.141593, To: 3.141593, Samples: 128, Workers: DefaultWorkers},
	},
	"gimbal": {
		Name: "gimbal", Scalar: "dual",
		Frames: []string{"outer", "middle", "inner"},
		Joints: []JointConfig{
			{Name: "yaw", Parent: multibody.WorldFrameName, Child: "outer", Axis: [3]float64{0, 0, 1}, Angle: 0.3},
			{Name: "pitch", Parent: "outer", Child: "middle", Axis: [3]float64{0, 1, 0}, Angle: 0.2},
			{Name: "roll", Parent: "middle", Child: "inner", Axis: [3]float64{1, 0, 0}, Angle: 0.1},
		},
		Sweep: SweepConfig{Joint: "pitch", From: -1.570796, To: 1.570796, Samples: 90, Workers: DefaultWorkers},
	},
	"triple": {
		Name: "triple", Scalar: "real",
		Frames: []string{"a", "b", "c"},
		Joints: []JointConfig{
			{Name: "hip", Parent: multibody.WorldFrameName, Child: "a", Axis: [3]float64{1, 1, 0}, Rate: 0.5, Torques: []float64{2}},
			{Name: "knee", Parent: "a", Child: "b", Axis: [3]float64{1, -1, 0}, Angle: 1, Torques: []float64{-2}},
			{Name: "ankle", Parent: "b", Child: "c", Axis: [3]float64{0, 1, 1}, Angle: -1, Rate: -0.5},
		},
		Sweep: SweepConfig{Joint: "knee", To: DefaultSweepTo, Samples: DefaultSamples, Workers: 8},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
