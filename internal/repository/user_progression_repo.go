package repository

import (
	"fmt"
)

// Usage tiers map to their counter column
const (
	TierFast    = "fast"
	TierPremium = "premium"
)

func usageColumn(tier string) (string, error) {
	switch tier {
	case TierFast:
		return "flash_usage", nil
	case TierPremium:
		return "pro_usage", nil
	}
	return "", fmt.Errorf("unknown usage tier %q", tier)
}

// AddXP increases total XP and returns the new total
func (r *UserRepository) AddXP(userID int64, amount int) (int, error) {
	if _, err := r.db.Exec("UPDATE users SET total_xp = total_xp + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", amount, userID); err != nil {
		return 0, fmt.Errorf("failed to add xp: %w", err)
	}
	var total int
	if err := r.db.QueryRow("SELECT total_xp FROM users WHERE id = ?", userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to read xp: %w", err)
	}
	return total, nil
}

// DebitXP subtracts cost only if the balance covers it. It returns false when funds are short.
func (r *UserRepository) DebitXP(userID int64, cost int) (bool, error) {
	result, err := r.db.Exec("UPDATE users SET total_xp = total_xp - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND total_xp >= ?", cost, userID, cost)
	if err != nil {
		return false, fmt.Errorf("failed to debit xp: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read debit result: %w", err)
	}
	return n > 0, nil
}

// SetLevel stores the computed level
func (r *UserRepository) SetLevel(userID int64, level int) error {
	if _, err := r.db.Exec("UPDATE users SET level = ? WHERE id = ?", level, userID); err != nil {
		return fmt.Errorf("failed to set level: %w", err)
	}
	return nil
}

// UpdateStreak stores the streak count and the date it was last extended
func (r *UserRepository) UpdateStreak(userID int64, count int, studyDate string) error {
	if _, err := r.db.Exec("UPDATE users SET streak_count = ?, last_study_date = ? WHERE id = ?", count, studyDate, userID); err != nil {
		return fmt.Errorf("failed to update streak: %w", err)
	}
	return nil
}

// UpdateDailyLessons stores the per-day lesson counter
func (r *UserRepository) UpdateDailyLessons(userID int64, count int, date string) error {
	if _, err := r.db.Exec("UPDATE users SET daily_lessons_completed = ?, daily_lessons_date = ? WHERE id = ?", count, date, userID); err != nil {
		return fmt.Errorf("failed to update daily lessons: %w", err)
	}
	return nil
}

// UpdatePetStatus stores the companion's stage and mood
func (r *UserRepository) UpdatePetStatus(userID int64, stage, mood string) error {
	if _, err := r.db.Exec("UPDATE users SET pet_stage = ?, pet_mood = ? WHERE id = ?", stage, mood, userID); err != nil {
		return fmt.Errorf("failed to update pet status: %w", err)
	}
	return nil
}

// IncrementPomodoros adds one completed pomodoro and returns the lifetime count
func (r *UserRepository) IncrementPomodoros(userID int64) (int, error) {
	if _, err := r.db.Exec("UPDATE users SET pomodoros_completed = pomodoros_completed + 1 WHERE id = ?", userID); err != nil {
		return 0, fmt.Errorf("failed to increment pomodoros: %w", err)
	}
	var count int
	if err := r.db.QueryRow("SELECT pomodoros_completed FROM users WHERE id = ?", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to read pomodoros: %w", err)
	}
	return count, nil
}

// ResetUsageIfStale zeroes both quota counters when the last active date is not today.
// It returns true when a reset happened.
func (r *UserRepository) ResetUsageIfStale(userID int64, today string) (bool, error) {
	result, err := r.db.Exec(
		"UPDATE users SET flash_usage = 0, pro_usage = 0, last_active_date = ? WHERE id = ? AND last_active_date <> ?",
		today, userID, today,
	)
	if err != nil {
		return false, fmt.Errorf("failed to reset usage: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// ConsumeUsage increments a tier counter while it is below limit.
// It returns false without changing anything when the quota is spent.
func (r *UserRepository) ConsumeUsage(userID int64, tier string, limit int) (bool, error) {
	column, err := usageColumn(tier)
	if err != nil {
		return false, err
	}
	query := "UPDATE users SET " + column + " = " + column + " + 1 WHERE id = ? AND " + column + " < ?"
	result, err := r.db.Exec(query, userID, limit)
	if err != nil {
		return false, fmt.Errorf("failed to consume usage: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read usage result: %w", err)
	}
	return n > 0, nil
}
