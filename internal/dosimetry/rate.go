package dosimetry

import "math"

// Rate model constants.
const (
	// BaseRateIUPerHour is the reference synthesis rate: IU of vitamin D per
	// hour for a young light-skinned adult in minimal clothing (80% skin
	// exposed), no sunscreen, at the reference UV index at sea level.
	BaseRateIUPerHour = 21000.0

	// referenceExposedFraction is the exposed-skin fraction the base rate is
	// calibrated against (minimal clothing).
	referenceExposedFraction = 0.80

	// referenceUVIndex is the UV index at which the UV-intensity factor
	// equals 1.0.
	referenceUVIndex = 6.0

	// uvHalfSaturation shapes the saturating UV curve uv/(uv+c). Marginal UV
	// above index ~6-8 yields diminishing synthesis gain.
	uvHalfSaturation = 3.0

	// ageFactorFloor is the minimum age factor, reached at age 70.
	ageFactorFloor = 0.25

	// ageFactorSlope is the per-year decline in synthesis capacity past 20.
	ageFactorSlope = 0.015

	// altitudeGainPerKm is the fractional UV increase per 1000m of
	// elevation.
	altitudeGainPerKm = 0.10
)

// RateInput bundles the environmental inputs for a rate computation.
type RateInput struct {
	// UVIndex is the effective ground-level UV index (cloud-adjusted).
	UVIndex float64

	// TimeOfDayQuality in [0,1] scales for spectral effectiveness: the UVB
	// fraction varies with solar angle even at equal UV index.
	TimeOfDayQuality float64

	// AltitudeMultiplier >= 1 scales for elevation.
	AltitudeMultiplier float64

	// AdaptationFactor is the photoadaptation multiplier around 1.0,
	// supplied by the adaptation tracker.
	AdaptationFactor float64
}

// Rate returns the instantaneous vitamin D synthesis rate in IU per hour.
//
// Five bounded factors and two environmental scalers compose
// multiplicatively on the base rate:
//
//	rate = base x uvFactor x exposure x skin x age x adaptation
//	            x timeOfDayQuality x altitudeMultiplier
//
// A UV index of zero always yields zero: no UVB, no synthesis. Negative or
// NaN numeric inputs are rejected with ErrInvalidInput rather than clamped.
func Rate(in RateInput, profile Profile) (float64, error) {
	if err := validateRateInput(in); err != nil {
		return 0, err
	}
	if err := profile.Validate(); err != nil {
		return 0, err
	}

	if in.UVIndex == 0 {
		return 0, nil
	}

	rate := BaseRateIUPerHour *
		uvIntensityFactor(in.UVIndex) *
		exposureFactor(profile) *
		profile.SkinType.SynthesisFactor() *
		AgeFactor(profile.Age) *
		in.AdaptationFactor *
		in.TimeOfDayQuality *
		in.AltitudeMultiplier

	return rate, nil
}

// uvIntensityFactor maps UV index to a saturating intensity factor,
// normalized so the reference UV index yields 1.0. Zero at uv=0, monotone
// increasing, with shrinking marginal gain above the half-saturation point.
func uvIntensityFactor(uv float64) float64 {
	return (uv / (uv + uvHalfSaturation)) /
		(referenceUVIndex / (referenceUVIndex + uvHalfSaturation))
}

// exposureFactor combines exposed skin fraction and sunscreen attenuation,
// normalized to the reference exposure the base rate was calibrated at.
func exposureFactor(p Profile) float64 {
	return (p.Clothing.ExposedFraction() / referenceExposedFraction) *
		(1 - p.Sunscreen.Attenuation())
}

// AgeFactor models reduced cutaneous synthesis capacity with age: 1.0 up to
// age 20, declining linearly to a floor of 0.25 at age 70 and beyond.
func AgeFactor(age int) float64 {
	if age <= 20 {
		return 1.0
	}
	return math.Max(ageFactorFloor, 1.0-ageFactorSlope*float64(age-20))
}

// AltitudeMultiplier returns the UV scaling for an elevation in meters.
// UV intensity rises roughly 10% per 1000m; the multiplier is never below 1.
func AltitudeMultiplier(altitudeMeters float64) float64 {
	if altitudeMeters <= 0 {
		return 1.0
	}
	return 1.0 + altitudeGainPerKm*(altitudeMeters/1000.0)
}

func validateRateInput(in RateInput) error {
	for _, v := range []float64{in.UVIndex, in.TimeOfDayQuality, in.AltitudeMultiplier, in.AdaptationFactor} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return ErrInvalidInput
		}
	}
	if in.TimeOfDayQuality > 1 {
		return ErrInvalidInput
	}
	if in.AltitudeMultiplier < 1 {
		return ErrInvalidInput
	}
	return nil
}
