package model

import "strings"

// MetricDef describes one supported metric: its default unit and the
// plausible numeric range used to reject OCR misreads (a "4.5" read as
// "45" is the primary failure mode).
type MetricDef struct {
	Code string  `json:"code" yaml:"code" mapstructure:"code"`
	Unit string  `json:"unit" yaml:"unit" mapstructure:"unit"`
	Min  float64 `json:"min" yaml:"min" mapstructure:"min"`
	Max  float64 `json:"max" yaml:"max" mapstructure:"max"`
}

// MetricRegistry maps metric codes to their definitions.
type MetricRegistry map[string]MetricDef

// Lookup finds a metric definition by code (case-insensitive).
func (r MetricRegistry) Lookup(code string) (MetricDef, bool) {
	def, ok := r[strings.ToLower(strings.TrimSpace(code))]
	return def, ok
}

// InRange reports whether a value is plausible for the metric.
func (d MetricDef) InRange(v float64) bool {
	return v >= d.Min && v <= d.Max
}

// DefaultMetrics is the built-in metric registry. Config may override
// ranges per metric code.
func DefaultMetrics() MetricRegistry {
	return MetricRegistry{
		"forty":       {Code: "forty", Unit: "s", Min: 3.5, Max: 10},
		"shuttle":     {Code: "shuttle", Unit: "s", Min: 3.5, Max: 15},
		"three_cone":  {Code: "three_cone", Unit: "s", Min: 5, Max: 15},
		"vertical":    {Code: "vertical", Unit: "in", Min: 5, Max: 55},
		"broad_jump":  {Code: "broad_jump", Unit: "in", Min: 40, Max: 150},
		"bench_press": {Code: "bench_press", Unit: "reps", Min: 0, Max: 60},
		"height":      {Code: "height", Unit: "in", Min: 48, Max: 90},
		"weight":      {Code: "weight", Unit: "lb", Min: 80, Max: 450},
	}
}
