package catalog

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Rarity tiers
const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

var rarities = map[string]bool{
	RarityCommon:    true,
	RarityRare:      true,
	RarityEpic:      true,
	RarityLegendary: true,
}

// Pet is a collectible that multiplies XP while equipped. A limited pet can only be
// hatched until LimitedUntil; when the data leaves it empty it inherits the latest
// deadline of the limited eggs that can roll it.
type Pet struct {
	ID           string     `yaml:"id" json:"id"`
	Name         string     `yaml:"name" json:"name"`
	Emoji        string     `yaml:"emoji" json:"emoji"`
	Rarity       string     `yaml:"rarity" json:"rarity"`
	XPMultiplier float64    `yaml:"xp_multiplier" json:"xp_multiplier"`
	Limited      bool       `yaml:"limited" json:"limited"`
	LimitedUntil *time.Time `yaml:"limited_until" json:"limited_until,omitempty"`
}


// RarityWeight is one row of an egg's probability table
type RarityWeight struct {
	Rarity string `yaml:"rarity" json:"rarity"`
	Weight int    `yaml:"weight" json:"weight"`
}

// Egg is a purchasable weighted draw over rarity tiers
type Egg struct {
	ID             string         `yaml:"id" json:"id"`
	Name           string         `yaml:"name" json:"name"`
	Emoji          string         `yaml:"emoji" json:"emoji"`
	Cost           int            `yaml:"cost" json:"cost"`
	Limited        bool           `yaml:"limited" json:"limited"`
	AvailableUntil *time.Time     `yaml:"available_until" json:"available_until,omitempty"`
	Weights        []RarityWeight `yaml:"weights" json:"weights"`
}

// Expired reports whether a time-limited egg can no longer be bought
func (e *Egg) Expired(now time.Time) bool {
	return e.AvailableUntil != nil && now.After(*e.AvailableUntil)
}

// PetCatalog holds the pets and eggs with per-egg draw pools
type PetCatalog struct {
	pets      []*Pet
	eggs      []*Egg
	petByID   map[string]*Pet
	eggByID   map[string]*Egg
	poolByEgg map[string]map[string][]*Pet
}

type petFile struct {
	Pets []*Pet `yaml:"pets"`
	Eggs []*Egg `yaml:"eggs"`
}

// ParsePets decodes and validates the pet shop. Every egg's weights must sum to 100
// and each tier it can roll must contain at least one eligible pet.
func ParsePets(data []byte) (*PetCatalog, error) {
	var pf petFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse pet data: %w", err)
	}

	pc := &PetCatalog{
		pets:      pf.Pets,
		eggs:      pf.Eggs,
		petByID:   make(map[string]*Pet),
		eggByID:   make(map[string]*Egg),
		poolByEgg: make(map[string]map[string][]*Pet),
	}

	for _, p := range pc.pets {
		if p.ID == "" {
			return nil, fmt.Errorf("pet %q has empty id", p.Name)
		}
		if _, dup := pc.petByID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate pet %q", p.ID)
		}
		if !rarities[p.Rarity] {
			return nil, fmt.Errorf("pet %q has unknown rarity %q", p.ID, p.Rarity)
		}
		if p.XPMultiplier < 1 {
			return nil, fmt.Errorf("pet %q multiplier %.2f is below 1", p.ID, p.XPMultiplier)
		}
		if p.LimitedUntil != nil && !p.Limited {
			return nil, fmt.Errorf("pet %q has a limited_until date but is not limited", p.ID)
		}
		pc.petByID[p.ID] = p
	}

	for _, egg := range pc.eggs {
		if _, dup := pc.eggByID[egg.ID]; dup {
			return nil, fmt.Errorf("duplicate egg %q", egg.ID)
		}
		if egg.Cost <= 0 {
			return nil, fmt.Errorf("egg %q must cost more than 0 XP", egg.ID)
		}

		pool := make(map[string][]*Pet)
		for _, p := range pc.pets {
			if p.Limited == egg.Limited {
				pool[p.Rarity] = append(pool[p.Rarity], p)
			}
		}

		sum := 0
		for _, w := range egg.Weights {
			if !rarities[w.Rarity] {
				return nil, fmt.Errorf("egg %q has unknown rarity %q", egg.ID, w.Rarity)
			}
			if w.Weight <= 0 {
				return nil, fmt.Errorf("egg %q has non-positive weight for %q", egg.ID, w.Rarity)
			}
			if len(pool[w.Rarity]) == 0 {
				return nil, fmt.Errorf("egg %q can roll %q but no eligible pets have that rarity", egg.ID, w.Rarity)
			}
			sum += w.Weight
		}
		if sum != 100 {
			return nil, fmt.Errorf("egg %q weights sum to %d, want 100", egg.ID, sum)
		}

		pc.eggByID[egg.ID] = egg
		pc.poolByEgg[egg.ID] = pool
	}

	inheritLimitedUntil(pc)
	return pc, nil
}

func (pc *PetCatalog) Pets() []*Pet { return pc.pets }

func (pc *PetCatalog) Eggs() []*Egg { return pc.eggs }

// Pet returns nil for an unknown id
func (pc *PetCatalog) Pet(id string) *Pet { return pc.petByID[id] }

// Egg returns nil for an unknown id
func (pc *PetCatalog) Egg(id string) *Egg { return pc.eggByID[id] }

// Pool returns the pets an egg can hatch, grouped by rarity
func (pc *PetCatalog) Pool(eggID string) map[string][]*Pet {
	return pc.poolByEgg[eggID]
}

func inheritLimitedUntil(pc *PetCatalog) {
	explicit := make(map[string]bool)
	for _, p := range pc.pets {
		explicit[p.ID] = p.LimitedUntil != nil
	}
	for _, egg := range pc.eggs {
		if !egg.Limited || egg.AvailableUntil == nil {
			continue
		}
		for _, tier := range pc.poolByEgg[egg.ID] {
			for _, p := range tier {
				if explicit[p.ID] {
					continue
				}
				if p.LimitedUntil == nil || p.LimitedUntil.Before(*egg.AvailableUntil) {
					until := *egg.AvailableUntil
					p.LimitedUntil = &until
				}
			}
		}
	}
}
