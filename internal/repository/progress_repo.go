package repository

import (
	"database/sql"
	"fmt"
	"time"

	"sorokinportal/internal/database"
	"sorokinportal/internal/models"
)

// ProgressRepository stores per-lesson progress rows
type ProgressRepository struct {
	db database.DBTX
}

func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// GetProgressMap returns lesson key -> status for every row the user has
func (r *ProgressRepository) GetProgressMap(userID int64) (map[string]string, error) {
	rows, err := r.db.Query("SELECT lesson_key, status FROM lesson_progress WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	progress := make(map[string]string)
	for rows.Next() {
		var key, status string
		if err := rows.Scan(&key, &status); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		progress[key] = status
	}
	return progress, rows.Err()
}

// GetProgress returns nil when the user has no row for the lesson
func (r *ProgressRepository) GetProgress(userID int64, lessonKey string) (*models.LessonProgress, error) {
	query := `
		SELECT id, user_id, lesson_key, status, completed_at, quiz_score, created_at, updated_at
		FROM lesson_progress
		WHERE user_id = ? AND lesson_key = ?
	`
	p := &models.LessonProgress{}
	var completedAt sql.NullTime
	var quizScore sql.NullInt64
	err := r.db.QueryRow(query, userID, lessonKey).Scan(
		&p.ID, &p.UserID, &p.LessonKey, &p.Status, &completedAt, &quizScore, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	if quizScore.Valid {
		score := int(quizScore.Int64)
		p.QuizScore = &score
	}
	return p, nil
}

// EnsureAvailable creates an available row unless one already exists
func (r *ProgressRepository) EnsureAvailable(userID int64, lessonKey string) error {
	query := r.db.GetDialect().InsertIgnoreQuery("lesson_progress", "user_id", "lesson_key", "status")
	if _, err := r.db.Exec(query, userID, lessonKey, models.StatusAvailable); err != nil {
		return fmt.Errorf("failed to create progress: %w", err)
	}
	return nil
}

// MarkCompleted moves a lesson to completed. It returns false if it already was.
func (r *ProgressRepository) MarkCompleted(userID int64, lessonKey string, at time.Time) (bool, error) {
	if err := r.EnsureAvailable(userID, lessonKey); err != nil {
		return false, err
	}
	query := `
		UPDATE lesson_progress
		SET status = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND lesson_key = ? AND status <> ?
	`
	result, err := r.db.Exec(query, models.StatusCompleted, at, userID, lessonKey, models.StatusCompleted)
	if err != nil {
		return false, fmt.Errorf("failed to complete lesson: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read completion result: %w", err)
	}
	return n > 0, nil
}

// CountCompleted returns how many lessons the user has completed
func (r *ProgressRepository) CountCompleted(userID int64) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM lesson_progress WHERE user_id = ? AND status = ?", userID, models.StatusCompleted).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return count, nil
}

// SetQuizScore records the latest quiz score for a lesson and reports whether it is the
// lesson's first recorded score
func (r *ProgressRepository) SetQuizScore(userID int64, lessonKey string, score int) (bool, error) {
	if err := r.EnsureAvailable(userID, lessonKey); err != nil {
		return false, err
	}

	result, err := r.db.Exec(
		"UPDATE lesson_progress SET quiz_score = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ? AND lesson_key = ? AND quiz_score IS NULL",
		score, userID, lessonKey,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set quiz score: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		return true, nil
	}

	_, err = r.db.Exec(
		"UPDATE lesson_progress SET quiz_score = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ? AND lesson_key = ?",
		score, userID, lessonKey,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set quiz score: %w", err)
	}
	return false, nil
}
