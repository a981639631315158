package syncclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-chat/internal/apperr"
	"market-chat/internal/models"
)

func TestHTTPSourceConversations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"conversations": []models.ConversationThread{conversationWith(1, 2, "hi")},
		})
	}))
	defer srv.Close()

	threads, err := NewHTTPSource(srv.URL+"/", "tok", srv.Client()).Conversations(context.Background())

	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "hi", *threads[0].Messages[0].Text)
}

func TestHTTPSourceSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req models.SendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(2), req.ReceiverID)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Message{ID: 5, ReceiverID: req.ReceiverID, Text: req.Text})
	}))
	defer srv.Close()

	msg, err := NewHTTPSource(srv.URL, "tok", srv.Client()).Send(context.Background(), models.SendRequest{ReceiverID: 2, Text: strPtr("yo")})

	require.NoError(t, err)
	assert.Equal(t, int64(5), msg.ID)
}

func TestHTTPSourceErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid token","code":"UNAUTHENTICATED"}`, apperr.ErrUnauthenticated},
		{"coded", http.StatusBadRequest, `{"error":"message has neither text nor image","code":"EMPTY_MESSAGE"}`, apperr.ErrEmptyMessage},
		{"uncoded", http.StatusBadGateway, `oops`, apperr.ErrAppendFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewHTTPSource(srv.URL, "tok", srv.Client()).Send(context.Background(), models.SendRequest{ReceiverID: 2, Text: strPtr("x")})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestHTTPSourceTransportFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHTTPSource(url, "tok", nil).Conversations(context.Background())

	assert.ErrorIs(t, err, apperr.ErrResolveFailed)
	assert.True(t, apperr.IsTransient(err))
}
