package models

import "time"

// MaxEquipSlots is the number of pets that can be equipped at once
const MaxEquipSlots = 3

// UserPet is one owned pet. Duplicates of the same catalog pet are allowed.
type UserPet struct {
	ID         int64
	UserID     int64
	PetID      string
	AcquiredAt time.Time
	IsEquipped bool
	EquipSlot  *int
}

// EggPurchase is the audit row written for every hatch
type EggPurchase struct {
	ID          int64
	UserID      int64
	EggType     string
	PetID       string
	XPCost      int
	PurchasedAt time.Time
}
