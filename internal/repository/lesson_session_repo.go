package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"sorokinportal/internal/database"
	"sorokinportal/internal/models"
)

// LessonSessionRepository stores each user's in-progress lesson
type LessonSessionRepository struct {
	db database.DBTX
}

func NewLessonSessionRepository(db database.DBTX) *LessonSessionRepository {
	return &LessonSessionRepository{db: db}
}

// Start replaces any existing session with a fresh one
func (r *LessonSessionRepository) Start(s *models.LessonSession) error {
	raw, err := models.EncodeMessages(s.Transcript)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	if _, err := r.db.Exec("DELETE FROM lesson_sessions WHERE user_id = ?", s.UserID); err != nil {
		return fmt.Errorf("failed to clear lesson session: %w", err)
	}
	query := `
		INSERT INTO lesson_sessions (user_id, lesson_key, section, difficulty, transcript)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, s.UserID, s.LessonKey, s.Section, s.Difficulty, raw); err != nil {
		return fmt.Errorf("failed to start lesson session: %w", err)
	}
	return nil
}

// Get returns nil when the user has no lesson in progress
func (r *LessonSessionRepository) Get(userID int64) (*models.LessonSession, error) {
	query := `
		SELECT user_id, lesson_key, section, difficulty, transcript, quiz, updated_at
		FROM lesson_sessions
		WHERE user_id = ?
	`
	s := &models.LessonSession{}
	var transcript string
	var quiz sql.NullString
	err := r.db.QueryRow(query, userID).Scan(&s.UserID, &s.LessonKey, &s.Section, &s.Difficulty, &transcript, &quiz, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson session: %w", err)
	}

	if s.Transcript, err = models.DecodeMessages(transcript); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	if quiz.Valid && quiz.String != "" {
		s.Quiz = json.RawMessage(quiz.String)
	}
	return s, nil
}

// SaveTranscript stores the transcript and current section
func (r *LessonSessionRepository) SaveTranscript(userID int64, section int, transcript []models.Message) error {
	raw, err := models.EncodeMessages(transcript)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	_, err = r.db.Exec(
		"UPDATE lesson_sessions SET section = ?, transcript = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?",
		section, raw, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

// SetQuiz stores a pending quiz; nil clears it
func (r *LessonSessionRepository) SetQuiz(userID int64, quiz json.RawMessage) error {
	var value interface{}
	if len(quiz) > 0 {
		value = string(quiz)
	}
	if _, err := r.db.Exec("UPDATE lesson_sessions SET quiz = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?", value, userID); err != nil {
		return fmt.Errorf("failed to set quiz: %w", err)
	}
	return nil
}

func (r *LessonSessionRepository) Delete(userID int64) error {
	if _, err := r.db.Exec("DELETE FROM lesson_sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete lesson session: %w", err)
	}
	return nil
}
