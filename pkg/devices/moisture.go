package devices

const (
	DefaultDryValue = 2100.0
	DefaultRange    = 600.0
)

// Calibration maps raw probe samples to a moisture percentage. DryValue is
// the raw sample of a dry probe; Range is how far the raw value drops
// between dry and saturated soil.
type Calibration struct {
	DryValue float64
	Range    float64
}

func DefaultCalibration() Calibration {
	return Calibration{
		DryValue: DefaultDryValue,
		Range:    DefaultRange,
	}
}

// Percentage converts a raw sample into a moisture percentage in [0, 100].
func (c Calibration) Percentage(raw int) int {
	if c.Range <= 0 {
		return 0
	}

	// Scale before dividing so whole percentages are exact
	percentage := int((c.DryValue - float64(raw)) * 100 / c.Range)

	if percentage < 0 {
		return 0
	}

	if percentage > 100 {
		return 100
	}

	return percentage
}
