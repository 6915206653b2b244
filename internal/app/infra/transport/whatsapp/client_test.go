package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"techbot/internal/app/domains/entity/etmessage"
	"techbot/internal/app/pkg/errorx"
)

func TestVerifySubscription(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		token     string
		wantOK    bool
		challenge string
	}{
		{"ok", "subscribe", "my-token", true, "12345"},
		{"wrong token", "subscribe", "nope", false, ""},
		{"wrong mode", "unsubscribe", "my-token", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := VerifySubscription("my-token", tt.mode, tt.token, "12345")
			if ok != tt.wantOK || got != tt.challenge {
				t.Fatalf("got (%q, %v), want (%q, %v)", got, ok, tt.challenge, tt.wantOK)
			}
		})
	}

	if _, ok := VerifySubscription("", "subscribe", "", "1"); ok {
		t.Fatal("empty verify token must never match")
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"object":"whatsapp_business_account"}`)
	mac := hmac.New(sha256.New, []byte("app-secret"))
	_, _ = mac.Write(body)
	sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if err := VerifySignature("app-secret", sig, body); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
	if err := VerifySignature("app-secret", sig, []byte("tampered")); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if err := VerifySignature("app-secret", "", body); !errors.Is(err, ErrMissingSignature) {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
	if err := VerifySignature("app-secret", "md5=abc", body); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestBuildPayloadButtonsOverflowBecomeList(t *testing.T) {
	msg := etmessage.NewButtons("chan", "9199", "Order", "Pick one", []etmessage.Button{
		{ID: "a", Title: "A"}, {ID: "b", Title: "B"}, {ID: "c", Title: "C"}, {ID: "d", Title: "D"},
	})
	payload, err := BuildPayload(msg)
	if err != nil {
		t.Fatalf("BuildPayload failed: %v", err)
	}
	inter := payload["interactive"].(map[string]any)
	if inter["type"] != "list" {
		t.Fatalf("expected list, got %v", inter["type"])
	}
	sections := inter["action"].(map[string]any)["sections"].([]map[string]any)
	if len(sections) != 1 || len(sections[0]["rows"].([]map[string]any)) != 4 {
		t.Fatalf("unexpected sections %v", sections)
	}
}

func TestBuildPayloadClipsTitles(t *testing.T) {
	msg := etmessage.NewButtons("chan", "9199", "", "body", []etmessage.Button{
		{ID: "x", Title: "A very long button title indeed"},
	})
	payload, err := BuildPayload(msg)
	if err != nil {
		t.Fatalf("BuildPayload failed: %v", err)
	}
	buttons := payload["interactive"].(map[string]any)["action"].(map[string]any)["buttons"].([]map[string]any)
	title := buttons[0]["reply"].(map[string]any)["title"].(string)
	if len([]rune(title)) != maxButtonTitleLen {
		t.Fatalf("title not clipped: %q", title)
	}
}

func TestBuildPayloadRejectsEmpty(t *testing.T) {
	if _, err := BuildPayload(etmessage.NewList("c", "t", "h", "b", "x", nil)); err == nil {
		t.Fatal("expected error for empty list")
	}
	if _, err := BuildPayload(&etmessage.Outbound{Kind: etmessage.OutboundCTA}); err == nil {
		t.Fatal("expected error for cta without url")
	}
}

func TestClientSend(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v22.0/phone-1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tkn" {
			t.Errorf("unexpected auth %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"messages":[{"id":"wamid.1"}]}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "tkn", srv.Client())
	if err := client.Send(context.Background(), etmessage.NewText("phone-1", "9199", "hello")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	want := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                "9199",
		"type":              "text",
		"text":              map[string]any{"body": "hello"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestClientSendFailure(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
		{"bad request", http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"failed"}`, tt.status)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "", "tkn", srv.Client())
			err := client.Send(context.Background(), etmessage.NewText("p", "t", "x"))
			if !errors.Is(err, errorx.ErrTransportFailure) {
				t.Fatalf("expected transport failure, got %v", err)
			}
			if got := errorx.IsRetryable(err); got != tt.retryable {
				t.Fatalf("IsRetryable = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestDownloadMedia(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/v22.0/media-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"url":"`+srv.URL+`/files/media-1","mime_type":"image/jpeg"}`)
	})
	mux.HandleFunc("/files/media-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tkn" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff})
	})

	client := NewClient(srv.URL, "", "tkn", srv.Client())
	file, err := client.DownloadMedia(context.Background(), "media-1")
	if err != nil {
		t.Fatalf("DownloadMedia failed: %v", err)
	}
	if file.MimeType != "image/jpeg" || len(file.Data) != 3 {
		t.Fatalf("unexpected file %+v", file)
	}
}
