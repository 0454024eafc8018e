package dosimetry_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundose/sundose/internal/dosimetry"
)

func baseProfile() dosimetry.Profile {
	return dosimetry.Profile{
		SkinType:  dosimetry.SkinTypeIII,
		Clothing:  dosimetry.ClothingMinimal,
		Sunscreen: dosimetry.SunscreenNone,
		Age:       30,
	}
}

func baseInput(uv float64) dosimetry.RateInput {
	return dosimetry.RateInput{
		UVIndex:            uv,
		TimeOfDayQuality:   1.0,
		AltitudeMultiplier: 1.0,
		AdaptationFactor:   1.0,
	}
}

func TestRate_ZeroUVYieldsZero(t *testing.T) {
	profiles := []dosimetry.Profile{
		baseProfile(),
		{SkinType: dosimetry.SkinTypeI, Clothing: dosimetry.ClothingNone, Age: 20},
		{SkinType: dosimetry.SkinTypeVI, Clothing: dosimetry.ClothingHeavy, Sunscreen: dosimetry.SunscreenHigh, Age: 80},
	}

	for _, p := range profiles {
		rate, err := dosimetry.Rate(baseInput(0), p)
		require.NoError(t, err)
		assert.Zero(t, rate)
	}
}

func TestRate_MonotoneInUV(t *testing.T) {
	prev := 0.0
	for uv := 0.5; uv <= 12; uv += 0.5 {
		rate, err := dosimetry.Rate(baseInput(uv), baseProfile())
		require.NoError(t, err)
		assert.Greater(t, rate, prev, "rate must increase with UV at uv=%.1f", uv)
		prev = rate
	}
}

func TestRate_SaturatesAboveUV8(t *testing.T) {
	rateAt := func(uv float64) float64 {
		rate, err := dosimetry.Rate(baseInput(uv), baseProfile())
		require.NoError(t, err)
		return rate
	}

	lowMargin := rateAt(3) - rateAt(2)
	highMargin := rateAt(10) - rateAt(9)
	assert.Less(t, highMargin, lowMargin, "marginal gain should shrink at high UV")
}

func TestRate_MonotoneAcrossSkinTypes(t *testing.T) {
	prev := math.Inf(1)
	for st := dosimetry.SkinTypeI; st <= dosimetry.SkinTypeVI; st++ {
		p := baseProfile()
		p.SkinType = st
		rate, err := dosimetry.Rate(baseInput(5), p)
		require.NoError(t, err)
		assert.Less(t, rate, prev, "darker skin must not synthesize more (type %d)", st)
		prev = rate
	}
}

func TestRate_ReferenceConditions(t *testing.T) {
	// Reference UV, minimal clothing, skin type I, age 20: only the skin
	// factor (1.0) and unit scalers apply, so the rate equals the base rate.
	p := dosimetry.Profile{
		SkinType:  dosimetry.SkinTypeI,
		Clothing:  dosimetry.ClothingMinimal,
		Sunscreen: dosimetry.SunscreenNone,
		Age:       20,
	}
	rate, err := dosimetry.Rate(baseInput(6), p)
	require.NoError(t, err)
	assert.InDelta(t, dosimetry.BaseRateIUPerHour, rate, 0.001)
}

func TestRate_SunscreenAttenuates(t *testing.T) {
	bare, err := dosimetry.Rate(baseInput(6), baseProfile())
	require.NoError(t, err)

	p := baseProfile()
	p.Sunscreen = dosimetry.SunscreenMedium
	covered, err := dosimetry.Rate(baseInput(6), p)
	require.NoError(t, err)

	assert.InDelta(t, bare*0.03, covered, bare*0.001)
}

func TestRate_InvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		in   dosimetry.RateInput
	}{
		{"negative uv", dosimetry.RateInput{UVIndex: -1, TimeOfDayQuality: 1, AltitudeMultiplier: 1, AdaptationFactor: 1}},
		{"nan uv", dosimetry.RateInput{UVIndex: math.NaN(), TimeOfDayQuality: 1, AltitudeMultiplier: 1, AdaptationFactor: 1}},
		{"quality above one", dosimetry.RateInput{UVIndex: 5, TimeOfDayQuality: 1.5, AltitudeMultiplier: 1, AdaptationFactor: 1}},
		{"altitude below one", dosimetry.RateInput{UVIndex: 5, TimeOfDayQuality: 1, AltitudeMultiplier: 0.5, AdaptationFactor: 1}},
		{"inf adaptation", dosimetry.RateInput{UVIndex: 5, TimeOfDayQuality: 1, AltitudeMultiplier: 1, AdaptationFactor: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dosimetry.Rate(tt.in, baseProfile())
			require.Error(t, err)
			assert.ErrorIs(t, err, dosimetry.ErrInvalidInput)
		})
	}
}

func TestRate_InvalidProfile(t *testing.T) {
	p := baseProfile()
	p.SkinType = 9
	_, err := dosimetry.Rate(baseInput(5), p)
	assert.ErrorIs(t, err, dosimetry.ErrInvalidInput)
}

func TestAgeFactor(t *testing.T) {
	assert.Equal(t, 1.0, dosimetry.AgeFactor(20))
	assert.Equal(t, 1.0, dosimetry.AgeFactor(10))
	assert.InDelta(t, 0.625, dosimetry.AgeFactor(45), 1e-9)
	assert.InDelta(t, 0.25, dosimetry.AgeFactor(70), 1e-9)
	assert.InDelta(t, 0.25, dosimetry.AgeFactor(95), 1e-9)
}

func TestAltitudeMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, dosimetry.AltitudeMultiplier(0))
	assert.Equal(t, 1.0, dosimetry.AltitudeMultiplier(-100))
	assert.InDelta(t, 1.10, dosimetry.AltitudeMultiplier(1000), 1e-9)
	assert.InDelta(t, 1.25, dosimetry.AltitudeMultiplier(2500), 1e-9)
}
