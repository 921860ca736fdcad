package gamification

import "math"

// multiplierEpsilon absorbs float error so that 100 x 1.15 floors to 115, not 114
const multiplierEpsilon = 1e-9

// ApplyMultipliers scales base XP by the product of the multipliers and floors the result.
// It returns the awarded amount and the combined multiplier.
func ApplyMultipliers(base int, multipliers []float64) (int, float64) {
	product := 1.0
	for _, m := range multipliers {
		product *= m
	}
	return int(math.Floor(float64(base)*product + multiplierEpsilon)), product
}
