package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"market-chat/internal/apperr"
	"market-chat/internal/identity"
	"market-chat/internal/middleware"
	"market-chat/internal/mocks"
	"market-chat/internal/models"
)

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, int64(1))
		c.Request = c.Request.WithContext(identity.WithUser(c.Request.Context(), 1))
		c.Next()
	})
	handler.Register(r)
	return r
}

func callerIs(id int64) interface{} {
	return mock.MatchedBy(func(ctx context.Context) bool {
		got, ok := identity.CurrentUser(ctx)
		return ok && got == id
	})
}

func TestListContactsSuccess(t *testing.T) {
	svc := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(svc))

	svc.On("Contacts", callerIs(1)).Return([]models.Contact{{ConversationID: 3, Peer: models.User{ID: 2, Name: "bob"}, Preview: "hi"}}, nil).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contacts", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Contacts []models.Contact `json:"contacts"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Contacts, 1)
	assert.Equal(t, "bob", resp.Contacts[0].Peer.Name)
	svc.AssertExpectations(t)
}

func TestListContactsFailure(t *testing.T) {
	svc := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(svc))

	svc.On("Contacts", mock.Anything).Return(nil, apperr.ResolveFailed(assert.AnError)).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contacts", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "RESOLVE_FAILED", resp["code"])
	assert.NotContains(t, resp["error"], assert.AnError.Error())
}

func TestListConversations(t *testing.T) {
	svc := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(svc))

	svc.On("Conversations", callerIs(1)).Return([]models.ConversationThread{{
		Conversation: models.Conversation{ID: 5, UserLow: 1, UserHigh: 2},
		Messages:     []models.Message{{ID: 1}},
	}}, nil).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Conversations []models.ConversationThread `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Conversations, 1)
	assert.Equal(t, int64(5), resp.Conversations[0].ID)
}

func TestSendMessageCreated(t *testing.T) {
	svc := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(svc))

	text := "hi"
	stored := models.Message{ID: 9, ConversationID: 5, SenderID: 1, ReceiverID: 2, Text: &text, CreatedAt: time.Now().UTC()}
	svc.On("Send", callerIs(1), mock.MatchedBy(func(req models.SendRequest) bool {
		return req.ReceiverID == 2 && req.Text != nil && *req.Text == "hi" && req.Image == nil
	})).Return(stored, nil).Once()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(`{"receiver_id":2,"text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var msg models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&msg))
	assert.Equal(t, int64(9), msg.ID)
	assert.Equal(t, int64(2), msg.ReceiverID)
	svc.AssertExpectations(t)
}

func TestSendMessageBadBody(t *testing.T) {
	svc := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(svc))

	for _, body := range []string{`{"text":"hi"}`, `not json`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	svc.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendMessageErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.ErrEmptyMessage, http.StatusBadRequest, "EMPTY_MESSAGE"},
		{apperr.ErrInvalidParticipants, http.StatusBadRequest, "INVALID_PARTICIPANTS"},
		{apperr.InvalidMessage(assert.AnError), http.StatusBadRequest, "INVALID_MESSAGE"},
		{apperr.ErrNotAParticipant, http.StatusForbidden, "NOT_A_PARTICIPANT"},
		{apperr.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{apperr.AppendFailed(assert.AnError), http.StatusInternalServerError, "APPEND_FAILED"},
		{apperr.AppendFailed(context.DeadlineExceeded), http.StatusServiceUnavailable, "APPEND_FAILED"},
		{apperr.ResolveFailed(context.DeadlineExceeded), http.StatusServiceUnavailable, "RESOLVE_FAILED"},
		{assert.AnError, http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			svc := new(mocks.ChatServiceMock)
			router := setupChatRouter(NewChatHandler(svc))
			svc.On("Send", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(`{"receiver_id":2,"text":"hi"}`))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			var resp map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tc.code, resp["code"])
		})
	}
}

func TestGetThread(t *testing.T) {
	svc := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(svc))

	svc.On("Thread", callerIs(1), int64(2)).Return(models.Thread{Messages: []models.Message{}}, nil).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/threads/2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"messages":[]}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestGetThreadInvalidPeer(t *testing.T) {
	svc := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(svc))

	for _, path := range []string{"/threads/abc", "/threads/0"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
	svc.AssertNotCalled(t, "Thread", mock.Anything, mock.Anything)
}
