package ocr

import (
	"fmt"
	"strconv"

	"github.com/apexperf/roster-cli/internal/model"
)

// Validator rejects extraction candidates whose numeric value falls
// outside the metric's plausible range. Digit misreads ("4.5" as "45")
// are the primary OCR failure mode, so implausible values are dropped
// with an explicit reason instead of being kept.
type Validator struct {
	metrics model.MetricRegistry
}

// NewValidator creates a Validator over the metric registry.
func NewValidator(metrics model.MetricRegistry) *Validator {
	return &Validator{metrics: metrics}
}

// Check returns a rejection reason for an implausible candidate, or ""
// when the candidate passes.
func (v *Validator) Check(c model.ExtractedMeasurementData) string {
	def, ok := v.metrics.Lookup(c.Metric)
	if !ok {
		return fmt.Sprintf("unknown metric %q", c.Metric)
	}
	value, err := strconv.ParseFloat(c.RawValue, 64)
	if err != nil {
		return fmt.Sprintf("value %q is not numeric", c.RawValue)
	}
	if !def.InRange(value) {
		return fmt.Sprintf("%s value %s outside plausible range %g-%g %s",
			def.Code, c.RawValue, def.Min, def.Max, def.Unit)
	}
	return ""
}

// Filter splits candidates into plausible rows and rejection warnings.
func (v *Validator) Filter(candidates []model.ExtractedMeasurementData) ([]model.ExtractedMeasurementData, []string) {
	var valid []model.ExtractedMeasurementData
	var warnings []string
	for _, c := range candidates {
		if reason := v.Check(c); reason != "" {
			warnings = append(warnings, fmt.Sprintf("rejected %q: %s", c.SourceText, reason))
			continue
		}
		valid = append(valid, c)
	}
	return valid, warnings
}
