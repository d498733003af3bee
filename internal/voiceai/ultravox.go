// Package voiceai is the Ultravox adapter.
//
// Rules (same as the telephony adapters):
// - No provider SDK; plain HTTP with bounded timeouts.
// - Request/response types stay provider-shaped here and never leak into
//   business logic beyond the returned session.
package voiceai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const createCallPath = "/api/calls"

// Client calls the Ultravox REST API.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Session is the created voice-AI call session. CallID doubles as the
// correlation id delivered back on the call.ended webhook.
type Session struct {
	CallID  string `json:"callId"`
	JoinURL string `json:"joinUrl"`
}

type createCallRequest struct {
	SystemPrompt         string               `json:"systemPrompt"`
	FirstSpeakerSettings firstSpeakerSettings `json:"firstSpeakerSettings"`
	Medium               medium               `json:"medium"`
}

// The agent waits for the callee to speak first.
type firstSpeakerSettings struct {
	User struct{} `json:"user"`
}

type medium struct {
	Twilio struct{} `json:"twilio"`
}

// CreateCall requests a new voice-AI session with the given system prompt
// and returns the join handle plus the correlation id.
func (c *Client) CreateCall(ctx context.Context, systemPrompt string) (Session, error) {
	body, err := json.Marshal(createCallRequest{SystemPrompt: systemPrompt})
	if err != nil {
		return Session{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createCallPath, bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("voiceai: create call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Session{}, fmt.Errorf("voiceai: create call: unexpected status %d: %s", resp.StatusCode, snippet)
	}

	var s Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return Session{}, fmt.Errorf("voiceai: create call: decode response: %w", err)
	}
	if s.CallID == "" || s.JoinURL == "" {
		return Session{}, errors.New("voiceai: create call: response missing callId or joinUrl")
	}
	return s, nil
}
