package repository

import (
	"database/sql"
	"fmt"

	"sorokinportal/internal/database"
	"sorokinportal/internal/models"
)

// LedgerRepository stores the XP audit log and per-day activity counters
type LedgerRepository struct {
	db database.DBTX
}

func NewLedgerRepository(db database.DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// RecordTransaction appends an XP transaction
func (r *LedgerRepository) RecordTransaction(tx models.XPTransaction) error {
	query := `
		INSERT INTO xp_transactions (user_id, amount, base_amount, multiplier, source_type, source_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, tx.UserID, tx.Amount, tx.BaseAmount, tx.Multiplier, tx.SourceType, tx.SourceID); err != nil {
		return fmt.Errorf("failed to record xp transaction: %w", err)
	}
	return nil
}

// RecentTransactions returns the newest transactions first
func (r *LedgerRepository) RecentTransactions(userID int64, limit int) ([]models.XPTransaction, error) {
	query := `
		SELECT id, user_id, amount, base_amount, multiplier, source_type, source_id, created_at
		FROM xp_transactions
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query xp transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.XPTransaction
	for rows.Next() {
		var t models.XPTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.BaseAmount, &t.Multiplier, &t.SourceType, &t.SourceID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan xp transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// ActivityDelta is added to a day's counters
type ActivityDelta struct {
	Lessons   int
	XP        int
	Pomodoros int
}

// AddActivity creates the day's row if needed and adds the delta to it
func (r *LedgerRepository) AddActivity(userID int64, date string, d ActivityDelta) error {
	insert := r.db.GetDialect().InsertIgnoreQuery("daily_activity", "user_id", "activity_date")
	if _, err := r.db.Exec(insert, userID, date); err != nil {
		return fmt.Errorf("failed to create daily activity: %w", err)
	}
	query := `
		UPDATE daily_activity
		SET lessons_completed = lessons_completed + ?, xp_earned = xp_earned + ?, pomodoros = pomodoros + ?
		WHERE user_id = ? AND activity_date = ?
	`
	if _, err := r.db.Exec(query, d.Lessons, d.XP, d.Pomodoros, userID, date); err != nil {
		return fmt.Errorf("failed to update daily activity: %w", err)
	}
	return nil
}

// GetActivity returns nil when nothing was recorded for the date
func (r *LedgerRepository) GetActivity(userID int64, date string) (*models.DailyActivity, error) {
	query := `
		SELECT id, user_id, activity_date, lessons_completed, xp_earned, pomodoros
		FROM daily_activity
		WHERE user_id = ? AND activity_date = ?
	`
	a := &models.DailyActivity{}
	err := r.db.QueryRow(query, userID, date).Scan(&a.ID, &a.UserID, &a.ActivityDate, &a.LessonsCompleted, &a.XPEarned, &a.Pomodoros)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily activity: %w", err)
	}
	return a, nil
}
