package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"techbot/internal/app/pkg/apptoken"
	"techbot/internal/app/pkg/errorx"
)

func newIdentityServer(t *testing.T, issuer *apptoken.Issuer) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if _, err := issuer.Parse(auth); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req otpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		switch r.URL.Path {
		case "/employee-login-otp/sent":
			if req.Mobile == "0000000000" {
				http.Error(w, "sms gateway down", http.StatusInternalServerError)
				return
			}
			_, _ = io.WriteString(w, `{"status":true}`)
		case "/employee-login-otp/confirm":
			if req.OTP != "4321" {
				_, _ = io.WriteString(w, `{"status":false,"message":"invalid otp"}`)
				return
			}
			_, _ = io.WriteString(w, `{"status":true,"payload":{"token":"tok","refreshToken":"ref","userId":"tech-1","name":"Rahul"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestIdentityClient(t *testing.T) {
	issuer := apptoken.NewIssuer("secret", "", 0)
	srv := newIdentityServer(t, issuer)
	defer srv.Close()

	client := NewIdentityClient(srv.URL+"/", issuer, srv.Client())
	ctx := context.Background()

	if err := client.IssueOTP(ctx, "9876543210"); err != nil {
		t.Fatalf("IssueOTP failed: %v", err)
	}
	if err := client.IssueOTP(ctx, "0000000000"); !errors.Is(err, errorx.ErrSessionBackendFailure) {
		t.Fatalf("expected ErrSessionBackendFailure, got %v", err)
	}

	creds, err := client.VerifyOTP(ctx, "9876543210", "1111")
	if err != nil || creds != nil {
		t.Fatalf("wrong otp should yield (nil, nil), got %+v, %v", creds, err)
	}

	creds, err = client.VerifyOTP(ctx, "9876543210", "4321")
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	if creds.Token != "tok" || creds.TechnicianID != "tech-1" || creds.TechnicianName != "Rahul" {
		t.Fatalf("unexpected credentials %+v", creds)
	}
}

func TestIdentityClientRejectedWithoutAppToken(t *testing.T) {
	srv := newIdentityServer(t, apptoken.NewIssuer("secret", "", 0))
	defer srv.Close()

	client := NewIdentityClient(srv.URL+"/", apptoken.NewIssuer("other", "", 0), srv.Client())
	if err := client.IssueOTP(context.Background(), "9876543210"); !errors.Is(err, errorx.ErrSessionBackendFailure) {
		t.Fatalf("expected ErrSessionBackendFailure, got %v", err)
	}
}
