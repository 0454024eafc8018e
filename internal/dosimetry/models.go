// Package dosimetry implements the vitamin D synthesis rate model and the
// burn-time estimator. Everything in this package is pure: the same inputs
// always produce the same outputs, so the rate can be recomputed on every
// tick without accumulating error.
package dosimetry

import "errors"

// Dosimetry errors.
var (
	ErrInvalidInput = errors.New("invalid dosimetry input")
)

// SkinType is a Fitzpatrick-style skin classification (1 = lightest,
// 6 = darkest). It is a proxy for melanin density, which reduces both UVB
// penetration (less synthesis) and burn susceptibility (longer burn times).
type SkinType int

// Fitzpatrick skin types.
const (
	SkinTypeI SkinType = iota + 1
	SkinTypeII
	SkinTypeIII
	SkinTypeIV
	SkinTypeV
	SkinTypeVI
)

// Valid reports whether the skin type is one of the six Fitzpatrick classes.
func (s SkinType) Valid() bool {
	return s >= SkinTypeI && s <= SkinTypeVI
}

// skinSynthesisFactor maps skin type to a synthesis-efficiency multiplier.
// Monotonically decreasing lightest to darkest.
var skinSynthesisFactor = map[SkinType]float64{
	SkinTypeI:   1.00,
	SkinTypeII:  0.92,
	SkinTypeIII: 0.78,
	SkinTypeIV:  0.60,
	SkinTypeV:   0.42,
	SkinTypeVI:  0.25,
}

// skinMEDBudget is the minimal-erythema-dose budget per skin type, expressed
// in UV-index-minutes (UV index x minutes of exposure). Dividing by the
// current UV index yields minutes to first detectable reddening.
// Monotonically increasing lightest to darkest.
var skinMEDBudget = map[SkinType]float64{
	SkinTypeI:   100,
	SkinTypeII:  125,
	SkinTypeIII: 167,
	SkinTypeIV:  250,
	SkinTypeV:   333,
	SkinTypeVI:  500,
}

// SynthesisFactor returns the skin type's synthesis-efficiency multiplier.
func (s SkinType) SynthesisFactor() float64 {
	return skinSynthesisFactor[s]
}

// ClothingLevel is an ordinal clothing coverage class. Each level carries a
// fixed exposed-skin fraction.
type ClothingLevel int

// Clothing levels, least to most coverage.
const (
	ClothingNone ClothingLevel = iota
	ClothingMinimal
	ClothingLight
	ClothingModerate
	ClothingHeavy
)

// Valid reports whether the clothing level is a known class.
func (c ClothingLevel) Valid() bool {
	return c >= ClothingNone && c <= ClothingHeavy
}

// clothingExposedFraction maps clothing level to the fraction of skin
// exposed to the sun.
var clothingExposedFraction = map[ClothingLevel]float64{
	ClothingNone:     1.00,
	ClothingMinimal:  0.80,
	ClothingLight:    0.40,
	ClothingModerate: 0.15,
	ClothingHeavy:    0.05,
}

// ExposedFraction returns the fraction of skin exposed for this level.
func (c ClothingLevel) ExposedFraction() float64 {
	return clothingExposedFraction[c]
}

// SunscreenLevel is an ordinal sunscreen class. Each level carries a fixed
// UV-attenuation fraction: the share of incident UVB blocked before it
// reaches the skin.
type SunscreenLevel int

// Sunscreen levels.
const (
	SunscreenNone SunscreenLevel = iota
	SunscreenLow
	SunscreenMedium
	SunscreenHigh
)

// Valid reports whether the sunscreen level is a known class.
func (s SunscreenLevel) Valid() bool {
	return s >= SunscreenNone && s <= SunscreenHigh
}

// sunscreenAttenuation maps sunscreen level to blocked UV fraction.
// SPF 15 blocks ~93% of UVB, SPF 30 ~97%, SPF 50 ~98%; the low/medium/high
// values are rounded to those reference points.
var sunscreenAttenuation = map[SunscreenLevel]float64{
	SunscreenNone:   0.00,
	SunscreenLow:    0.93,
	SunscreenMedium: 0.97,
	SunscreenHigh:   0.98,
}

// Attenuation returns the fraction of UV blocked by this sunscreen level.
func (s SunscreenLevel) Attenuation() float64 {
	return sunscreenAttenuation[s]
}

// Profile is the personal parameter set for the rate model. The model
// treats it as read-only; callers own it.
type Profile struct {
	SkinType       SkinType
	Clothing       ClothingLevel
	Sunscreen      SunscreenLevel
	Age            int
	AltitudeMeters float64
}

// Validate checks all profile fields against their allowed ranges.
func (p Profile) Validate() error {
	if !p.SkinType.Valid() {
		return ErrInvalidInput
	}
	if !p.Clothing.Valid() {
		return ErrInvalidInput
	}
	if !p.Sunscreen.Valid() {
		return ErrInvalidInput
	}
	if p.Age < 0 || p.Age > 130 {
		return ErrInvalidInput
	}
	if p.AltitudeMeters < -500 || p.AltitudeMeters > 9000 {
		return ErrInvalidInput
	}
	return nil
}
