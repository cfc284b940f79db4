package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"table-reservation-api/apperrors"
	"table-reservation-api/chat"
	"table-reservation-api/logger"
)

type ChatHandler struct {
	client *chat.Client
}

func NewChatHandler(client *chat.Client) *ChatHandler {
	return &ChatHandler{client: client}
}

type ChatRequest struct {
	Messages []chat.Message `json:"messages" binding:"required,min=1,max=20,dive"`
}

func (h *ChatHandler) Reply(c *gin.Context) {
	if !h.client.Enabled() {
		respondError(c, apperrors.Unavailable(chat.ErrDisabled.Error()))
		return
	}
	var req ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	reply, err := h.client.Reply(c.Request.Context(), req.Messages)
	if err != nil {
		if !errors.Is(err, chat.ErrDisabled) {
			logger.FromContext(c.Request.Context()).Warn().Err(err).Msg("chat completion failed")
		}
		respondError(c, apperrors.Unavailable("assistant is unavailable, please try again later"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
