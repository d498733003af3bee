package voiceai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCreateCall(t *testing.T) {
	var (
		gotPath   string
		gotAPIKey string
		gotBody   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"callId":  "uv-call-1",
			"joinUrl": "wss://media.example.com/join/abc",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key", time.Second)
	s, err := c.CreateCall(context.Background(), "You are calling Alice.")
	if err != nil {
		t.Fatalf("create call: %v", err)
	}

	if gotPath != "/api/calls" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAPIKey != "secret-key" {
		t.Fatalf("X-API-Key = %q", gotAPIKey)
	}
	if gotBody["systemPrompt"] != "You are calling Alice." {
		t.Fatalf("systemPrompt = %v", gotBody["systemPrompt"])
	}
	if _, ok := gotBody["firstSpeakerSettings"].(map[string]any)["user"]; !ok {
		t.Fatalf("expected firstSpeakerSettings.user, got %v", gotBody["firstSpeakerSettings"])
	}
	if _, ok := gotBody["medium"].(map[string]any)["twilio"]; !ok {
		t.Fatalf("expected medium.twilio, got %v", gotBody["medium"])
	}

	if s.CallID != "uv-call-1" || s.JoinURL != "wss://media.example.com/join/abc" {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestCreateCall_RejectsIncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"callId": "uv-call-1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key", time.Second)
	if _, err := c.CreateCall(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error for response missing joinUrl")
	}
}

func TestCreateCall_SurfacesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wrong-key", time.Second)
	_, err := c.CreateCall(context.Background(), "prompt")
	if err == nil {
		t.Fatalf("expected error on non-2xx")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "invalid api key") {
		t.Fatalf("error should carry status and body snippet, got %v", err)
	}
}
