package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"market-chat/internal/apperr"
	"market-chat/internal/models"
)

// HTTPSource talks to the chat HTTP API with a bearer token. It implements
// both Source and Sender.
type HTTPSource struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPSource(baseURL, token string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{baseURL: strings.TrimRight(baseURL, "/"), token: token, client: client}
}

func (s *HTTPSource) Conversations(ctx context.Context) ([]models.ConversationThread, error) {
	var resp struct {
		Conversations []models.ConversationThread `json:"conversations"`
	}
	if err := s.do(ctx, http.MethodGet, "/conversations", nil, http.StatusOK, &resp); err != nil {
		return nil, asFailure(err, apperr.ResolveFailed)
	}
	if resp.Conversations == nil {
		resp.Conversations = []models.ConversationThread{}
	}
	return resp.Conversations, nil
}

func (s *HTTPSource) Send(ctx context.Context, req models.SendRequest) (models.Message, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.Message{}, err
	}
	var msg models.Message
	if err := s.do(ctx, http.MethodPost, "/messages", body, http.StatusCreated, &msg); err != nil {
		return models.Message{}, asFailure(err, apperr.AppendFailed)
	}
	return msg, nil
}

type errorBody struct {
	Error string      `json:"error"`
	Code  apperr.Code `json:"code"`
}

func (s *HTTPSource) do(ctx context.Context, method, path string, body []byte, want int, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return apperr.ErrUnauthenticated
	}
	if resp.StatusCode != want {
		var eb errorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb)
		if eb.Code != "" {
			return apperr.New(eb.Code, eb.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// asFailure keeps coded server errors as they are and turns transport
// failures into the storage failure of the operation.
func asFailure(err error, wrap func(error) error) error {
	if apperr.CodeOf(err) != "" {
		return err
	}
	return wrap(err)
}
