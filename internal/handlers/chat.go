package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"market-chat/internal/models"
)

// ChatService is the chat boundary. The caller is taken from the request
// context, which AuthMiddleware populates.
type ChatService interface {
	Contacts(ctx context.Context) ([]models.Contact, error)
	Conversations(ctx context.Context) ([]models.ConversationThread, error)
	Send(ctx context.Context, req models.SendRequest) (models.Message, error)
	Thread(ctx context.Context, peerID int64) (models.Thread, error)
}

// ChatHandler manages private chat endpoints.
type ChatHandler struct {
	service ChatService
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(service ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// Register mounts the chat routes on an authenticated group.
func (h *ChatHandler) Register(r gin.IRoutes) {
	r.GET("/contacts", h.ListContacts)
	r.GET("/conversations", h.ListConversations)
	r.POST("/messages", h.SendMessage)
	r.GET("/threads/:peer_id", h.GetThread)
}

// ListContacts returns the caller's contact list, most recent first.
func (h *ChatHandler) ListContacts(c *gin.Context) {
	contacts, err := h.service.Contacts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

// ListConversations returns every conversation of the caller with messages.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	threads, err := h.service.Conversations(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": threads})
}

// SendMessage stores a message, creating the conversation on first contact.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req models.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_REQUEST"})
		return
	}

	msg, err := h.service.Send(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// GetThread returns the ordered messages with one peer. An unknown peer
// yields an empty list.
func (h *ChatHandler) GetThread(c *gin.Context) {
	peerID, err := strconv.ParseInt(c.Param("peer_id"), 10, 64)
	if err != nil || peerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid peer id", "code": "INVALID_REQUEST"})
		return
	}

	thread, err := h.service.Thread(c.Request.Context(), peerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}
