package gamification

import (
	"sorokinportal/internal/catalog"
)

// Rand is the subset of math/rand/v2 used for draws
type Rand interface {
	IntN(n int) int
}

// RollTier picks the first tier whose cumulative weight reaches roll (1..100)
func RollTier(weights []catalog.RarityWeight, roll int) string {
	cumulative := 0
	for _, w := range weights {
		cumulative += w.Weight
		if roll <= cumulative {
			return w.Rarity
		}
	}
	if len(weights) == 0 {
		return ""
	}
	return weights[len(weights)-1].Rarity
}

// Hatch draws a pet from an egg: a tier by weight, then a uniform pick inside the tier
func Hatch(egg *catalog.Egg, pool map[string][]*catalog.Pet, rng Rand) *catalog.Pet {
	tier := RollTier(egg.Weights, rng.IntN(100)+1)
	candidates := pool[tier]
	if len(candidates) == 0 {
		return nil
	}
	return candidates[rng.IntN(len(candidates))]
}
