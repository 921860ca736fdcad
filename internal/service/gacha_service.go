package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/database"
	"sorokinportal/internal/gamification"
	"sorokinportal/internal/logging"
	"sorokinportal/internal/models"
	"sorokinportal/internal/repository"
)

// OwnedPet is a user's pet joined with its catalog entry
type OwnedPet struct {
	models.UserPet
	Pet *catalog.Pet
}

// EggOffer is one egg in the shop as seen by a particular user
type EggOffer struct {
	*catalog.Egg
	Available  bool
	Affordable bool
}

// Collection is the pets page view
type Collection struct {
	XP         int
	Pets       []OwnedPet
	Equipped   [models.MaxEquipSlots]*OwnedPet
	Multiplier float64
	Eggs       []EggOffer
}

// HatchResult is what an egg purchase produced
type HatchResult struct {
	UserPetID int64
	Pet       *catalog.Pet
	Egg       *catalog.Egg
	XPLeft    int
}

type lockedRand struct {
	mu  sync.Mutex
	rng gamification.Rand
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// GachaService sells eggs and manages equipped pets
type GachaService struct {
	db      *database.DB
	pets    *catalog.PetCatalog
	petRepo *repository.PetRepository
	users   *repository.UserRepository
	rng     gamification.Rand
	clock   Clock
	logger  *logging.Logger
}

// NewGachaService builds the shop. A nil rng draws from the process-wide source.
func NewGachaService(db *database.DB, pets *catalog.PetCatalog, rng gamification.Rand, clock Clock, logger *logging.Logger) *GachaService {
	if rng == nil {
		rng = globalRand{}
	} else {
		rng = &lockedRand{rng: rng}
	}
	return &GachaService{
		db:      db,
		pets:    pets,
		petRepo: repository.NewPetRepository(db),
		users:   repository.NewUserRepository(db),
		rng:     rng,
		clock:   clock,
		logger:  logger,
	}
}

// Buy debits the egg's cost and hatches a pet. All writes share one transaction.
func (s *GachaService) Buy(ctx context.Context, userID int64, eggID string) (*HatchResult, error) {
	egg := s.pets.Egg(eggID)
	if egg == nil {
		return nil, ErrUnknownEgg
	}
	if egg.Expired(s.clock.Now()) {
		return nil, ErrOfferExpired
	}

	pet := gamification.Hatch(egg, s.pets.Pool(egg.ID), s.rng)
	if pet == nil {
		return nil, fmt.Errorf("egg %s has no pets for the rolled tier", egg.ID)
	}

	result := &HatchResult{Pet: pet, Egg: egg}
	err := s.db.WithTx(func(tx *database.Tx) error {
		users := repository.NewUserRepository(tx)
		pets := repository.NewPetRepository(tx)
		ledger := repository.NewLedgerRepository(tx)

		ok, err := users.DebitXP(userID, egg.Cost)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientXP
		}

		user, err := users.GetUserByID(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user %d not found", userID)
		}
		if level := gamification.LevelForXP(user.TotalXP); level != user.Level {
			if err := users.SetLevel(userID, level); err != nil {
				return err
			}
			// Spending can drop a level, and the companion's stage follows it down
			if stage := gamification.PetStage(level); stage != user.PetStage {
				if err := users.UpdatePetStatus(userID, stage, user.PetMood); err != nil {
					return err
				}
			}
		}
		result.XPLeft = user.TotalXP

		result.UserPetID, err = pets.AddUserPet(userID, pet.ID)
		if err != nil {
			return err
		}
		if err := pets.RecordPurchase(models.EggPurchase{
			UserID:  userID,
			EggType: egg.ID,
			PetID:   pet.ID,
			XPCost:  egg.Cost,
		}); err != nil {
			return err
		}
		return ledger.RecordTransaction(models.XPTransaction{
			UserID:     userID,
			Amount:     -egg.Cost,
			BaseAmount: -egg.Cost,
			Multiplier: 1,
			SourceType: models.SourceEggPurchase,
			SourceID:   egg.ID,
		})
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientXP) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to purchase egg: %w", err)
	}

	s.logger.Info("Egg hatched", "user_id", userID, "egg", egg.ID, "pet", pet.ID, "rarity", pet.Rarity)
	return result, nil
}

// Equip places an owned pet into slot 1..3, displacing whatever was there
func (s *GachaService) Equip(ctx context.Context, userID, userPetID int64, slot int) error {
	if slot < 1 || slot > models.MaxEquipSlots {
		return ErrInvalidSlot
	}
	owned, err := s.petRepo.GetUserPet(userID, userPetID)
	if err != nil {
		return err
	}
	if owned == nil {
		return ErrPetNotFound
	}
	return s.petRepo.Equip(userID, userPetID, slot)
}

// Unequip frees the pet's slot
func (s *GachaService) Unequip(ctx context.Context, userID, userPetID int64) error {
	owned, err := s.petRepo.GetUserPet(userID, userPetID)
	if err != nil {
		return err
	}
	if owned == nil {
		return ErrPetNotFound
	}
	return s.petRepo.Unequip(userID, userPetID)
}

// Collection returns owned pets, the active multiplier and the egg shop
func (s *GachaService) Collection(ctx context.Context, userID int64) (*Collection, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}

	owned, err := s.petRepo.ListUserPets(userID)
	if err != nil {
		return nil, err
	}

	c := &Collection{XP: user.TotalXP, Multiplier: 1}
	for _, up := range owned {
		pet := s.pets.Pet(up.PetID)
		if pet == nil {
			continue
		}
		c.Pets = append(c.Pets, OwnedPet{UserPet: up, Pet: pet})
	}
	for i := range c.Pets {
		p := &c.Pets[i]
		if p.IsEquipped && p.EquipSlot != nil && *p.EquipSlot >= 1 && *p.EquipSlot <= models.MaxEquipSlots {
			c.Equipped[*p.EquipSlot-1] = p
			c.Multiplier *= p.Pet.XPMultiplier
		}
	}

	now := s.clock.Now()
	for _, egg := range s.pets.Eggs() {
		available := !egg.Expired(now)
		c.Eggs = append(c.Eggs, EggOffer{
			Egg:        egg,
			Available:  available,
			Affordable: available && user.TotalXP >= egg.Cost,
		})
	}
	return c, nil
}
