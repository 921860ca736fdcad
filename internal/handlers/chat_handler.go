package handlers

import (
	"net/http"
	"net/url"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/llm"
	"sorokinportal/internal/logging"
	"sorokinportal/internal/service"
)

// ChatHandler serves the free-form tutor chat
type ChatHandler struct {
	chats  *service.ChatService
	usage  *service.UsageService
	pages  *Renderer
	logger *logging.Logger
}

func NewChatHandler(chats *service.ChatService, usage *service.UsageService, pages *Renderer, logger *logging.Logger) *ChatHandler {
	return &ChatHandler{chats: chats, usage: usage, pages: pages, logger: logger}
}

// chatURL keeps the chosen subject and tier across the redirect
func chatURL(subject, tier string) string {
	q := url.Values{}
	if subject != "" {
		q.Set("subject", subject)
	}
	if tier != "" {
		q.Set("tier", tier)
	}
	if len(q) == 0 {
		return "/chat"
	}
	return "/chat?" + q.Encode()
}

// ShowChat renders the current chat and the history sidebar
func (h *ChatHandler) ShowChat(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	chat, err := h.chats.Current(r.Context(), user)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Error loading chat", err)
		return
	}
	history, err := h.chats.History(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Error loading chat history", err)
		return
	}

	subject := r.URL.Query().Get("subject")
	if catalog.ChatPrompt(subject) == "" {
		subject = catalog.DefaultChatSubject
	}
	tier := r.URL.Query().Get("tier")
	if !llm.ValidTier(tier) {
		tier = llm.TierFast
	}

	data := ChatViewData{
		Page:     h.pages.Page(w, r, "Chat"),
		Chat:     chat,
		History:  history,
		Subjects: catalog.ChatSubjects,
		Subject:  subject,
		Tier:     tier,
		Usage:    h.usage.Snapshot(user),
	}
	h.pages.Render(w, r, "chat.tmpl", data)
}

// NewChat starts an empty chat
func (h *ChatHandler) NewChat(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if _, err := h.chats.NewChat(r.Context(), user.ID); err != nil {
		h.pages.Fail(w, r, "/chat", "Error creating chat", err)
		return
	}
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

// Send posts a message to the tutor
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	subject := r.FormValue("subject")
	tier := r.FormValue("tier")
	back := chatURL(subject, tier)

	if _, err := h.chats.Send(r.Context(), user, subject, tier, r.FormValue("message")); err != nil {
		h.pages.Fail(w, r, back, "Error sending chat message", err)
		return
	}
	http.Redirect(w, r, back+"#latest", http.StatusSeeOther)
}

// Switch makes a chat from the history current
func (h *ChatHandler) Switch(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if err := h.chats.Switch(r.Context(), user.ID, r.PathValue("id")); err != nil {
		h.pages.Fail(w, r, "/chat", "Error switching chat", err)
		return
	}
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

// Delete removes a chat
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if err := h.chats.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		h.pages.Fail(w, r, "/chat", "Error deleting chat", err)
		return
	}
	h.pages.Redirect(w, r, "/chat", "Chat deleted.")
}
