package models

import (
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: time.Now().Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := Session{
				ID:        "test-session",
				UserID:    1,
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			result := session.IsExpired()
			if result != tt.want {
				t.Errorf("Session.IsExpired() = %v, want %v", result, tt.want)
			}
		})
	}
}

func TestPasswordResetTokenIsValid(t *testing.T) {
	tests := []struct {
		name  string
		token PasswordResetToken
		want  bool
	}{
		{
			name:  "fresh token",
			token: PasswordResetToken{ExpiresAt: time.Now().Add(time.Hour)},
			want:  true,
		},
		{
			name:  "used token",
			token: PasswordResetToken{ExpiresAt: time.Now().Add(time.Hour), Used: true},
			want:  false,
		},
		{
			name:  "expired token",
			token: PasswordResetToken{ExpiresAt: time.Now().Add(-time.Minute)},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChatLogIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		chat ChatLog
		want bool
	}{
		{"new chat", ChatLog{Title: DefaultChatTitle}, true},
		{"titled chat", ChatLog{Title: "Quadratic help"}, false},
		{"untitled with messages", ChatLog{Title: DefaultChatTitle, Messages: []Message{{Role: RoleUser, Content: "hi"}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chat.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageEncoding(t *testing.T) {
	raw, err := EncodeMessages(nil)
	if err != nil {
		t.Fatalf("EncodeMessages(nil) failed: %v", err)
	}
	if raw != "[]" {
		t.Errorf("EncodeMessages(nil) = %q, want []", raw)
	}

	msgs, err := DecodeMessages("")
	if err != nil || len(msgs) != 0 {
		t.Errorf("DecodeMessages(\"\") = %v, %v", msgs, err)
	}

	if _, err := DecodeMessages("{not json"); err == nil {
		t.Error("DecodeMessages should reject malformed input")
	}
}
