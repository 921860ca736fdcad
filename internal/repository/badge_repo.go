package repository

import (
	"fmt"

	"sorokinportal/internal/database"
	"sorokinportal/internal/models"
)

// BadgeRepository stores badge awards
type BadgeRepository struct {
	db database.DBTX
}

func NewBadgeRepository(db database.DBTX) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Award inserts a badge unless the user already has it. It returns true only for a new award.
func (r *BadgeRepository) Award(userID int64, badgeID string) (bool, error) {
	query := r.db.GetDialect().InsertIgnoreQuery("user_badges", "user_id", "badge_id")
	result, err := r.db.Exec(query, userID, badgeID)
	if err != nil {
		return false, fmt.Errorf("failed to award badge: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read badge result: %w", err)
	}
	return n > 0, nil
}

func (r *BadgeRepository) HasBadge(userID int64, badgeID string) (bool, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM user_badges WHERE user_id = ? AND badge_id = ?", userID, badgeID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check badge: %w", err)
	}
	return count > 0, nil
}

// ListBadges returns the user's badges in the order they were earned
func (r *BadgeRepository) ListBadges(userID int64) ([]models.UserBadge, error) {
	rows, err := r.db.Query("SELECT id, user_id, badge_id, earned_at FROM user_badges WHERE user_id = ? ORDER BY earned_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	var badges []models.UserBadge
	for rows.Next() {
		var b models.UserBadge
		if err := rows.Scan(&b.ID, &b.UserID, &b.BadgeID, &b.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}
