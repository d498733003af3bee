package dialer

import (
	"context"
	"errors"
	"testing"

	"voca-platform/internal/telephony"
	"voca-platform/internal/voiceai"
)

type fakeVoiceAI struct {
	prompts []string
	session voiceai.Session
	err     error
}

func (f *fakeVoiceAI) CreateCall(ctx context.Context, systemPrompt string) (voiceai.Session, error) {
	f.prompts = append(f.prompts, systemPrompt)
	return f.session, f.err
}

type fakeTelephony struct {
	reqs []telephony.ConnectRequest
	err  error
}

func (f *fakeTelephony) ConnectCall(ctx context.Context, req telephony.ConnectRequest) error {
	f.reqs = append(f.reqs, req)
	return f.err
}

func newTestDialer(va *fakeVoiceAI, tel *fakeTelephony) *CallDialer {
	return &CallDialer{
		VoiceAI:        va,
		Telephony:      tel,
		BaseURL:        "https://voca.example.com",
		PromptTemplate: "You are calling {name}. Your goal is to qualify the lead.",
	}
}

func TestDial_RunsBothSteps(t *testing.T) {
	va := &fakeVoiceAI{session: voiceai.Session{
		CallID:  "uv-call-1",
		JoinURL: "wss://media.example.com/join?token=a&leg=b",
	}}
	tel := &fakeTelephony{}
	d := newTestDialer(va, tel)

	id, err := d.Dial(context.Background(), "+919876543210", "Alice")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if id != "uv-call-1" {
		t.Fatalf("expected session call id, got %q", id)
	}

	if len(va.prompts) != 1 || va.prompts[0] != "You are calling Alice. Your goal is to qualify the lead." {
		t.Fatalf("unexpected prompt: %v", va.prompts)
	}

	if len(tel.reqs) != 1 {
		t.Fatalf("expected 1 connect request, got %d", len(tel.reqs))
	}
	req := tel.reqs[0]
	if req.From != "+919876543210" {
		t.Fatalf("From = %q", req.From)
	}
	want := "https://voca.example.com/connect-to-uv?joinUrl=wss%3A%2F%2Fmedia.example.com%2Fjoin%3Ftoken%3Da%26leg%3Db"
	if req.BridgeURL != want {
		t.Fatalf("BridgeURL = %q, want %q", req.BridgeURL, want)
	}
	if req.StatusCallbackURL != "https://voca.example.com/webhook/exotel_status" {
		t.Fatalf("StatusCallbackURL = %q", req.StatusCallbackURL)
	}
}

func TestDial_VoiceAIFailureSkipsTelephony(t *testing.T) {
	va := &fakeVoiceAI{err: errors.New("session quota exceeded")}
	tel := &fakeTelephony{}
	d := newTestDialer(va, tel)

	if _, err := d.Dial(context.Background(), "+919876543210", "Alice"); err == nil {
		t.Fatalf("expected error from voice-ai step")
	}
	if len(tel.reqs) != 0 {
		t.Fatalf("telephony must not be called after session failure, got %d", len(tel.reqs))
	}
}

func TestDial_TelephonyFailurePropagates(t *testing.T) {
	va := &fakeVoiceAI{session: voiceai.Session{CallID: "uv-call-1", JoinURL: "wss://x"}}
	tel := &fakeTelephony{err: errors.New("connect refused")}
	d := newTestDialer(va, tel)

	_, err := d.Dial(context.Background(), "+919876543210", "Alice")
	if err == nil {
		t.Fatalf("expected error from telephony step")
	}
	// The session was created; it is abandoned, not torn down.
	if len(va.prompts) != 1 {
		t.Fatalf("expected one session created, got %d", len(va.prompts))
	}
}
