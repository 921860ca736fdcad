package service

import (
	"context"
	"fmt"
	"strings"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/llm"
	"sorokinportal/internal/logging"
	"sorokinportal/internal/models"
	"sorokinportal/internal/repository"
	"sorokinportal/internal/security"
)

// HistoryLimit is how many chats the history page lists
const HistoryLimit = 20

// contextMessages bounds how much of the transcript is replayed to the model
const contextMessages = 10

const (
	titleFallbackLen = 30
	titleMaxLen      = 50
)

// ChatService manages free-form tutoring conversations
type ChatService struct {
	chats  *repository.ChatRepository
	users  *repository.UserRepository
	usage  *UsageService
	llm    *llm.Router
	logger *logging.Logger
}

func NewChatService(chats *repository.ChatRepository, users *repository.UserRepository, usage *UsageService, router *llm.Router, logger *logging.Logger) *ChatService {
	return &ChatService{chats: chats, users: users, usage: usage, llm: router, logger: logger}
}

// NewChat creates an empty chat and makes it current
func (s *ChatService) NewChat(ctx context.Context, userID int64) (string, error) {
	id := security.GenerateChatID()
	if err := s.chats.Create(userID, id); err != nil {
		return "", err
	}
	if err := s.users.SetCurrentChat(userID, id); err != nil {
		return "", err
	}
	return id, nil
}

// Current returns the user's current chat, creating one if the pointer is missing or stale
func (s *ChatService) Current(ctx context.Context, user *models.User) (*models.ChatLog, error) {
	if user.CurrentChatID != "" {
		chat, err := s.chats.Get(user.ID, user.CurrentChatID)
		if err != nil {
			return nil, err
		}
		if chat != nil {
			return chat, nil
		}
	}
	id, err := s.NewChat(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.CurrentChatID = id
	return s.chats.Get(user.ID, id)
}

// History lists the most recent chats
func (s *ChatService) History(ctx context.Context, userID int64) ([]models.ChatLog, error) {
	return s.chats.ListRecent(userID, HistoryLimit)
}

// Switch makes another chat current and drops the user's other empty chats
func (s *ChatService) Switch(ctx context.Context, userID int64, chatID string) error {
	chat, err := s.chats.Get(userID, chatID)
	if err != nil {
		return err
	}
	if chat == nil {
		return ErrChatNotFound
	}
	if err := s.users.SetCurrentChat(userID, chatID); err != nil {
		return err
	}
	_, err = s.chats.DeleteEmpty(userID, chatID)
	return err
}

// Delete removes a chat. Deleting the current chat leaves the pointer for Current to replace.
func (s *ChatService) Delete(ctx context.Context, userID int64, chatID string) error {
	chat, err := s.chats.Get(userID, chatID)
	if err != nil {
		return err
	}
	if chat == nil {
		return ErrChatNotFound
	}
	return s.chats.Delete(userID, chatID)
}

// CleanupEmpty removes every unused chat except keepID
func (s *ChatService) CleanupEmpty(ctx context.Context, userID int64, keepID string) (int64, error) {
	return s.chats.DeleteEmpty(userID, keepID)
}

func chatPrompt(subject string, history []models.Message, message string) string {
	var sb strings.Builder
	if persona := catalog.ChatPrompt(subject); persona != "" {
		sb.WriteString(persona)
		sb.WriteString("\n\n")
	}
	if len(history) > contextMessages {
		history = history[len(history)-contextMessages:]
	}
	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, m := range history {
			role := "Student"
			if m.Role == models.RoleAssistant {
				role = "Tutor"
			}
			fmt.Fprintf(&sb, "%s: %s\n", role, m.Content)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(message)
	return sb.String()
}

func titlePrompt(firstMessage string) string {
	return fmt.Sprintf("Generate a concise 3-5 word title for a chat that starts with: '%s'. Return ONLY the title, nothing else.", truncateRunes(firstMessage, 100))
}

// cleanTitle strips quotes and caps the length, falling back to the opening of the message
func cleanTitle(raw, firstMessage string) string {
	title := strings.NewReplacer(`"`, "", "'", "").Replace(strings.TrimSpace(raw))
	title = truncateRunes(strings.TrimSpace(title), titleMaxLen)
	if title == "" {
		return truncateRunes(strings.TrimSpace(firstMessage), titleFallbackLen)
	}
	return title
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Send posts a message to the current chat on the chosen tier and stores the reply
func (s *ChatService) Send(ctx context.Context, user *models.User, subject, tier, message string) (*models.ChatLog, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if !llm.ValidTier(tier) {
		return nil, ErrUnknownTier
	}

	chat, err := s.Current(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.usage.Consume(ctx, user.ID, tier); err != nil {
		return nil, err
	}

	client := s.llm.For(tier)
	reply, err := client.Generate(ctx, chatPrompt(subject, chat.Messages, message))
	if err != nil {
		s.logger.Error("Chat request failed", "user_id", user.ID, "model", client.Name(), "error", err)
		return nil, ErrTutorUnavailable
	}

	firstExchange := len(chat.Messages) == 0
	chat.Messages = append(chat.Messages,
		models.Message{Role: models.RoleUser, Content: message},
		models.Message{Role: models.RoleAssistant, Content: reply},
	)
	if err := s.chats.SaveMessages(user.ID, chat.SessionID, chat.Messages); err != nil {
		return nil, err
	}

	if firstExchange {
		raw, err := s.llm.Fast().Generate(ctx, titlePrompt(message))
		if err != nil {
			s.logger.Warn("Chat title generation failed", "user_id", user.ID, "error", err)
			raw = ""
		}
		chat.Title = cleanTitle(raw, message)
		if err := s.chats.SetTitle(user.ID, chat.SessionID, chat.Title); err != nil {
			return nil, err
		}
	}
	return chat, nil
}
