package dosimetry

import "math"

// BurnTime is the advisory safe-exposure ceiling for a skin type at a given
// UV index. It is surfaced so the consumer can warn the user; it never halts
// an active session.
type BurnTime struct {
	// Minutes until the minimal erythema dose is reached. Zero when
	// Unbounded is true.
	Minutes int

	// Unbounded is true when there is no meaningful limit (UV index 0).
	Unbounded bool
}

// EstimateBurnTime returns the minutes of exposure before the skin type's
// minimal erythema dose is reached at the given UV index.
//
// The MED budget per skin type is expressed in UV-index-minutes; dividing by
// the current UV index gives the time to reach it. The result is
// monotonically non-increasing in UV index and non-decreasing lightest to
// darkest skin type.
func EstimateBurnTime(uvIndex float64, skin SkinType) (BurnTime, error) {
	if math.IsNaN(uvIndex) || math.IsInf(uvIndex, 0) || uvIndex < 0 {
		return BurnTime{}, ErrInvalidInput
	}
	if !skin.Valid() {
		return BurnTime{}, ErrInvalidInput
	}

	if uvIndex == 0 {
		return BurnTime{Unbounded: true}, nil
	}

	minutes := int(math.Round(skinMEDBudget[skin] / uvIndex))
	if minutes < 1 {
		minutes = 1
	}
	return BurnTime{Minutes: minutes}, nil
}
