// Package telephony is the Exotel adapter: outbound call connect, the
// ExoML bridge document, and status-callback form parsing.
//
// No provider SDK calls outside this package.
package telephony

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ExotelClient places outbound calls via the Exotel Calls/connect API.
type ExotelClient struct {
	baseURL  string
	sid      string
	apiKey   string
	apiToken string
	callerID string
	httpc    *http.Client
}

func NewExotelClient(baseURL, sid, apiKey, apiToken, callerID string, timeout time.Duration) *ExotelClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ExotelClient{
		baseURL:  baseURL,
		sid:      sid,
		apiKey:   apiKey,
		apiToken: apiToken,
		callerID: callerID,
		httpc:    &http.Client{Timeout: timeout},
	}
}

// ConnectRequest instructs Exotel to dial the lead and, once answered,
// fetch call flow instructions from BridgeURL (which returns the ExoML
// that streams the leg into the voice-AI session).
type ConnectRequest struct {
	// From is the lead's phone number.
	From string

	// BridgeURL is fetched by Exotel for call flow instructions.
	BridgeURL string

	// StatusCallbackURL receives terminal status updates.
	StatusCallbackURL string
}

// ConnectCall places the outbound call. Terminal status events are
// delivered out of band to the status callback.
func (c *ExotelClient) ConnectCall(ctx context.Context, req ConnectRequest) error {
	form := url.Values{}
	form.Set("From", req.From)
	form.Set("CallerId", c.callerID)
	form.Set("Url", req.BridgeURL)
	form.Set("StatusCallback", req.StatusCallbackURL)
	form.Set("StatusCallbackEvents[0]", "terminal")

	endpoint := fmt.Sprintf("%s/v1/Accounts/%s/Calls/connect", c.baseURL, c.sid)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(c.apiKey, c.apiToken)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("telephony: exotel connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telephony: exotel connect: unexpected status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
