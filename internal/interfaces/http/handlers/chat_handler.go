package handlers

import (
	"net/http"

	"jirai-backend/internal/interfaces/http/dto"
	"jirai-backend/internal/service/session"
	"jirai-backend/pkg/api"
)

func (h *Handler) getChat(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session.Session) error {
		api.Success(w, http.StatusOK, s.Chat.Snapshot())
		return nil
	})
}

// sendChat stores the message and returns at once; the reply is appended
// asynchronously and shows up on the next GET.
func (h *Handler) sendChat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatMessageRequest
	if err := h.decode(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.withSession(w, r, func(s *session.Session) error {
		msg, _ := h.deps.Sessions.SendChat(s, req.Content)
		api.Success(w, http.StatusAccepted, dto.ChatSendResponse{
			Message:      msg,
			Conversation: s.Chat.Snapshot(),
		})
		return nil
	})
}

func (h *Handler) newConversation(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session.Session) error {
		api.Success(w, http.StatusOK, h.deps.Sessions.NewConversation(s))
		return nil
	})
}
