package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestConnectCall_SendsProviderForm(t *testing.T) {
	var (
		gotPath string
		gotForm url.Values
		gotUser string
		gotPass string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = r.PostForm
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewExotelClient(srv.URL, "acct1", "key1", "token1", "04433551234", time.Second)
	err := c.ConnectCall(context.Background(), ConnectRequest{
		From:              "+919876543210",
		BridgeURL:         "https://voca.example.com/connect-to-uv?joinUrl=x",
		StatusCallbackURL: "https://voca.example.com/webhook/exotel_status",
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	if gotPath != "/v1/Accounts/acct1/Calls/connect" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotUser != "key1" || gotPass != "token1" {
		t.Fatalf("unexpected basic auth %q:%q", gotUser, gotPass)
	}
	if got := gotForm.Get("From"); got != "+919876543210" {
		t.Fatalf("From = %q", got)
	}
	if got := gotForm.Get("CallerId"); got != "04433551234" {
		t.Fatalf("CallerId = %q", got)
	}
	if got := gotForm.Get("Url"); got != "https://voca.example.com/connect-to-uv?joinUrl=x" {
		t.Fatalf("Url = %q", got)
	}
	if got := gotForm.Get("StatusCallback"); got != "https://voca.example.com/webhook/exotel_status" {
		t.Fatalf("StatusCallback = %q", got)
	}
	if got := gotForm.Get("StatusCallbackEvents[0]"); got != "terminal" {
		t.Fatalf("StatusCallbackEvents[0] = %q", got)
	}
}

func TestConnectCall_SurfacesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"RestException":{"Message":"insufficient balance"}}`, http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := NewExotelClient(srv.URL, "acct1", "key1", "token1", "04433551234", time.Second)
	err := c.ConnectCall(context.Background(), ConnectRequest{From: "+919876543210"})
	if err == nil {
		t.Fatalf("expected error on non-2xx")
	}
	if !strings.Contains(err.Error(), "402") || !strings.Contains(err.Error(), "insufficient balance") {
		t.Fatalf("error should carry status and body snippet, got %v", err)
	}
}
