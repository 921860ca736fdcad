package models

import (
	"encoding/json"
	"time"
)

// DefaultChatTitle marks a chat that has not been named yet
const DefaultChatTitle = "New"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat or lesson transcript
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatLog is a free-form tutoring conversation
type ChatLog struct {
	SessionID string
	UserID    int64
	Title     string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsEmpty reports whether the chat was never used
func (c *ChatLog) IsEmpty() bool {
	return c.Title == DefaultChatTitle && len(c.Messages) == 0
}

// LessonSession is the in-progress tutoring state for a user's current lesson
type LessonSession struct {
	UserID     int64
	LessonKey  string
	Section    int
	Difficulty string
	Transcript []Message
	Quiz       json.RawMessage
	UpdatedAt  time.Time
}

// HasQuiz reports whether a quiz is waiting to be answered
func (s *LessonSession) HasQuiz() bool {
	return len(s.Quiz) > 0
}

// EncodeMessages serialises a transcript for storage
func EncodeMessages(msgs []Message) (string, error) {
	if msgs == nil {
		msgs = []Message{}
	}
	b, err := json.Marshal(msgs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeMessages parses a stored transcript, treating blank input as empty
func DecodeMessages(raw string) ([]Message, error) {
	if raw == "" {
		return []Message{}, nil
	}
	var msgs []Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, nil
}
