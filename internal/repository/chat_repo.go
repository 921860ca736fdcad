package repository

import (
	"database/sql"
	"fmt"

	"sorokinportal/internal/database"
	"sorokinportal/internal/models"
)

// ChatRepository stores free-form chat logs
type ChatRepository struct {
	db database.DBTX
}

func NewChatRepository(db database.DBTX) *ChatRepository {
	return &ChatRepository{db: db}
}

func scanChat(row rowScanner) (*models.ChatLog, error) {
	c := &models.ChatLog{}
	var raw string
	if err := row.Scan(&c.SessionID, &c.UserID, &c.Title, &raw, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	msgs, err := models.DecodeMessages(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode chat %s: %w", c.SessionID, err)
	}
	c.Messages = msgs
	return c, nil
}

const chatColumns = "session_id, user_id, title, messages, created_at, updated_at"

// Create inserts an empty, untitled chat
func (r *ChatRepository) Create(userID int64, sessionID string) error {
	query := "INSERT INTO chat_logs (session_id, user_id, title, messages) VALUES (?, ?, ?, ?)"
	if _, err := r.db.Exec(query, sessionID, userID, models.DefaultChatTitle, "[]"); err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	return nil
}

// Get returns nil when the chat does not exist or belongs to another user
func (r *ChatRepository) Get(userID int64, sessionID string) (*models.ChatLog, error) {
	c, err := scanChat(r.db.QueryRow("SELECT "+chatColumns+" FROM chat_logs WHERE session_id = ? AND user_id = ?", sessionID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return c, nil
}

// ListRecent returns the most recently updated chats
func (r *ChatRepository) ListRecent(userID int64, limit int) ([]models.ChatLog, error) {
	rows, err := r.db.Query("SELECT "+chatColumns+" FROM chat_logs WHERE user_id = ? ORDER BY updated_at DESC, created_at DESC LIMIT ?", userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	var chats []models.ChatLog
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, *c)
	}
	return chats, rows.Err()
}

// SaveMessages replaces the transcript
func (r *ChatRepository) SaveMessages(userID int64, sessionID string, msgs []models.Message) error {
	raw, err := models.EncodeMessages(msgs)
	if err != nil {
		return fmt.Errorf("failed to encode chat: %w", err)
	}
	_, err = r.db.Exec(
		"UPDATE chat_logs SET messages = ?, updated_at = CURRENT_TIMESTAMP WHERE session_id = ? AND user_id = ?",
		raw, sessionID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to save chat: %w", err)
	}
	return nil
}

func (r *ChatRepository) SetTitle(userID int64, sessionID, title string) error {
	if _, err := r.db.Exec("UPDATE chat_logs SET title = ? WHERE session_id = ? AND user_id = ?", title, sessionID, userID); err != nil {
		return fmt.Errorf("failed to set chat title: %w", err)
	}
	return nil
}

func (r *ChatRepository) Delete(userID int64, sessionID string) error {
	if _, err := r.db.Exec("DELETE FROM chat_logs WHERE session_id = ? AND user_id = ?", sessionID, userID); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return nil
}

// DeleteEmpty removes the user's unused chats except keepID
func (r *ChatRepository) DeleteEmpty(userID int64, keepID string) (int64, error) {
	result, err := r.db.Exec(
		"DELETE FROM chat_logs WHERE user_id = ? AND title = ? AND messages = ? AND session_id <> ?",
		userID, models.DefaultChatTitle, "[]", keepID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete empty chats: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
