package repository

import (
	"database/sql"
	"fmt"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/database"
	"sorokinportal/internal/models"
)

// PetRepository stores the pet catalog mirror, ownership and purchases
type PetRepository struct {
	db database.DBTX
}

func NewPetRepository(db database.DBTX) *PetRepository {
	return &PetRepository{db: db}
}

// SyncCatalog mirrors catalog pets into the pets table so ownership rows have a foreign key target
func (r *PetRepository) SyncCatalog(pets []*catalog.Pet) error {
	insert := r.db.GetDialect().InsertIgnoreQuery("pets", "pet_id", "name", "emoji", "rarity", "xp_multiplier", "is_limited", "limited_until")
	update := "UPDATE pets SET name = ?, emoji = ?, rarity = ?, xp_multiplier = ?, is_limited = ?, limited_until = ? WHERE pet_id = ?"
	for _, p := range pets {
		if _, err := r.db.Exec(insert, p.ID, p.Name, p.Emoji, p.Rarity, p.XPMultiplier, p.Limited, p.LimitedUntil); err != nil {
			return fmt.Errorf("failed to insert pet %s: %w", p.ID, err)
		}
		if _, err := r.db.Exec(update, p.Name, p.Emoji, p.Rarity, p.XPMultiplier, p.Limited, p.LimitedUntil, p.ID); err != nil {
			return fmt.Errorf("failed to update pet %s: %w", p.ID, err)
		}
	}
	return nil
}

const userPetColumns = "id, user_id, pet_id, acquired_at, is_equipped, equip_slot"

func scanUserPet(row rowScanner) (*models.UserPet, error) {
	up := &models.UserPet{}
	var slot sql.NullInt64
	if err := row.Scan(&up.ID, &up.UserID, &up.PetID, &up.AcquiredAt, &up.IsEquipped, &slot); err != nil {
		return nil, err
	}
	if slot.Valid {
		s := int(slot.Int64)
		up.EquipSlot = &s
	}
	return up, nil
}

// AddUserPet records ownership of a newly hatched pet
func (r *PetRepository) AddUserPet(userID int64, petID string) (int64, error) {
	id, err := r.db.ExecReturningID("INSERT INTO user_pets (user_id, pet_id) VALUES (?, ?)", userID, petID)
	if err != nil {
		return 0, fmt.Errorf("failed to add user pet: %w", err)
	}
	return id, nil
}

// RecordPurchase writes the egg purchase audit row
func (r *PetRepository) RecordPurchase(p models.EggPurchase) error {
	query := "INSERT INTO egg_purchases (user_id, egg_type, pet_id, xp_cost) VALUES (?, ?, ?, ?)"
	if _, err := r.db.Exec(query, p.UserID, p.EggType, p.PetID, p.XPCost); err != nil {
		return fmt.Errorf("failed to record egg purchase: %w", err)
	}
	return nil
}

// ListUserPets returns owned pets, newest first
func (r *PetRepository) ListUserPets(userID int64) ([]models.UserPet, error) {
	rows, err := r.db.Query("SELECT "+userPetColumns+" FROM user_pets WHERE user_id = ? ORDER BY id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user pets: %w", err)
	}
	defer rows.Close()

	var pets []models.UserPet
	for rows.Next() {
		up, err := scanUserPet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user pet: %w", err)
		}
		pets = append(pets, *up)
	}
	return pets, rows.Err()
}

// GetUserPet returns nil if the pet does not exist or belongs to someone else
func (r *PetRepository) GetUserPet(userID, userPetID int64) (*models.UserPet, error) {
	up, err := scanUserPet(r.db.QueryRow("SELECT "+userPetColumns+" FROM user_pets WHERE id = ? AND user_id = ?", userPetID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user pet: %w", err)
	}
	return up, nil
}

// EquippedMultipliers returns the XP multiplier of every equipped pet
func (r *PetRepository) EquippedMultipliers(userID int64) ([]float64, error) {
	query := `
		SELECT p.xp_multiplier
		FROM user_pets up
		JOIN pets p ON p.pet_id = up.pet_id
		WHERE up.user_id = ? AND up.is_equipped = ?
		ORDER BY up.equip_slot
	`
	rows, err := r.db.Query(query, userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query equipped pets: %w", err)
	}
	defer rows.Close()

	var multipliers []float64
	for rows.Next() {
		var m float64
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("failed to scan multiplier: %w", err)
		}
		multipliers = append(multipliers, m)
	}
	return multipliers, rows.Err()
}

// Equip puts a pet into a slot, first clearing the slot and the pet's previous slot
func (r *PetRepository) Equip(userID, userPetID int64, slot int) error {
	if _, err := r.db.Exec(
		"UPDATE user_pets SET is_equipped = ?, equip_slot = NULL WHERE user_id = ? AND (equip_slot = ? OR id = ?)",
		false, userID, slot, userPetID,
	); err != nil {
		return fmt.Errorf("failed to clear slot: %w", err)
	}
	if _, err := r.db.Exec(
		"UPDATE user_pets SET is_equipped = ?, equip_slot = ? WHERE id = ? AND user_id = ?",
		true, slot, userPetID, userID,
	); err != nil {
		return fmt.Errorf("failed to equip pet: %w", err)
	}
	return nil
}

// Unequip clears a pet's slot
func (r *PetRepository) Unequip(userID, userPetID int64) error {
	if _, err := r.db.Exec(
		"UPDATE user_pets SET is_equipped = ?, equip_slot = NULL WHERE id = ? AND user_id = ?",
		false, userPetID, userID,
	); err != nil {
		return fmt.Errorf("failed to unequip pet: %w", err)
	}
	return nil
}
