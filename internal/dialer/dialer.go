// Package dialer performs the two-step call-establishment protocol:
// create a voice-AI session, then ask the telephony provider to dial the
// lead and bridge the answered call into that session.
package dialer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"voca-platform/internal/telephony"
	"voca-platform/internal/voiceai"
)

// Dialer initiates a call and returns the correlation id used to match
// the eventual completion event back to the lead.
type Dialer interface {
	Dial(ctx context.Context, phone, name string) (string, error)
}

// VoiceAI is the slice of the Ultravox client the dialer needs.
type VoiceAI interface {
	CreateCall(ctx context.Context, systemPrompt string) (voiceai.Session, error)
}

// Telephony is the slice of the Exotel client the dialer needs.
type Telephony interface {
	ConnectCall(ctx context.Context, req telephony.ConnectRequest) error
}

// CallDialer wires the two providers together.
//
// Both steps must succeed. If the telephony leg fails after the voice-AI
// session was created, the session is abandoned without teardown; it
// times out provider-side.
type CallDialer struct {
	VoiceAI   VoiceAI
	Telephony Telephony

	// BaseURL is the public URL of this process; the bridge and status
	// callbacks are served from it.
	BaseURL string

	// PromptTemplate is the voice-AI system prompt; {name} is replaced
	// with the lead's name.
	PromptTemplate string

	// DialTimeout bounds the whole two-step operation. Zero means the
	// individual client timeouts are the only bound.
	DialTimeout time.Duration
}

func (d *CallDialer) Dial(ctx context.Context, phone, name string) (string, error) {
	if d.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.DialTimeout)
		defer cancel()
	}

	prompt := strings.ReplaceAll(d.PromptTemplate, "{name}", name)

	session, err := d.VoiceAI.CreateCall(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("dialer: voice-ai session: %w", err)
	}

	req := telephony.ConnectRequest{
		From:              phone,
		BridgeURL:         d.BaseURL + "/connect-to-uv?joinUrl=" + url.QueryEscape(session.JoinURL),
		StatusCallbackURL: d.BaseURL + "/webhook/exotel_status",
	}
	if err := d.Telephony.ConnectCall(ctx, req); err != nil {
		return "", fmt.Errorf("dialer: telephony connect: %w", err)
	}

	return session.CallID, nil
}
