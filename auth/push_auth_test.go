// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-json-experiment/json"
)

func newSender(t *testing.T) *PushNotificationSenderAuth {
	t.Helper()

	s := NewPushNotificationSenderAuth()
	if err := s.GenerateJWK(); err != nil {
		t.Fatalf("GenerateJWK: %v", err)
	}
	return s
}

func TestJWKSHandler(t *testing.T) {
	s := newSender(t)

	rec := httptest.NewRecorder()
	s.JWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	var body struct {
		Keys []map[string]any `json:"keys"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal jwks: %v", err)
	}
	if len(body.Keys) != 1 {
		t.Fatalf("keys = %d, want 1", len(body.Keys))
	}
	key := body.Keys[0]
	if key["kty"] != "RSA" || key["alg"] != "RS256" || key["use"] != "sig" {
		t.Errorf("unexpected key header: %v", key)
	}
	if kid, _ := key["kid"].(string); len(kid) != 32 {
		t.Errorf("kid = %q, want 32 hex chars", kid)
	}
	if _, ok := key["d"]; ok {
		t.Error("published key includes private exponent")
	}
}

func TestVerifyPushNotificationURL(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    bool
	}{
		{
			name: "echo",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, r.URL.Query().Get(ValidationTokenParam))
			},
			want: true,
		},
		{
			name: "wrong token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "not-the-token")
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, r.URL.Query().Get(ValidationTokenParam), http.StatusInternalServerError)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			s := NewPushNotificationSenderAuth()
			if got := s.VerifyPushNotificationURL(context.Background(), srv.URL+"/notify"); got != tt.want {
				t.Errorf("VerifyPushNotificationURL() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		if NewPushNotificationSenderAuth().VerifyPushNotificationURL(context.Background(), url) {
			t.Error("unreachable url verified")
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if NewPushNotificationSenderAuth().VerifyPushNotificationURL(context.Background(), "not a url") {
			t.Error("malformed url verified")
		}
	})
}

func TestSendAndVerifyPushNotification(t *testing.T) {
	sender := newSender(t)

	mux := http.NewServeMux()
	mux.Handle("GET /.well-known/jwks.json", sender.JWKSHandler())
	jwksSrv := httptest.NewServer(mux)
	defer jwksSrv.Close()

	receiver := NewPushNotificationReceiverAuth()
	if err := receiver.LoadJWKS(context.Background(), jwksSrv.URL+"/.well-known/jwks.json"); err != nil {
		t.Fatalf("LoadJWKS: %v", err)
	}

	received := make(chan map[string]any, 1)
	hook := httptest.NewServer(receiver.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var v map[string]any
		if err := json.UnmarshalRead(r.Body, &v); err != nil {
			t.Errorf("handler body: %v", err)
		}
		received <- v
	})))
	defer hook.Close()

	payload := map[string]any{"id": "task-1", "status": map[string]any{"state": "working"}}
	if err := sender.SendPushNotification(context.Background(), hook.URL, payload); err != nil {
		t.Fatalf("SendPushNotification: %v", err)
	}

	select {
	case got := <-received:
		if got["id"] != "task-1" {
			t.Errorf("received id = %v", got["id"])
		}
	case <-time.After(5 * time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestVerifyRejects(t *testing.T) {
	sender := newSender(t)
	receiver := NewPushNotificationReceiverAuth()
	receiver.keys = sender.KeySet()

	body := []byte(`{"id":"task-1"}`)
	token, err := sender.signBody(body)
	if err != nil {
		t.Fatalf("signBody: %v", err)
	}

	if err := receiver.Verify(token, body); err != nil {
		t.Fatalf("Verify(valid) = %v", err)
	}

	if err := receiver.Verify(token, []byte(`{"id":"task-2"}`)); !errors.Is(err, ErrBodyHashMismatch) {
		t.Errorf("Verify(tampered) = %v, want %v", err, ErrBodyHashMismatch)
	}

	receiver.now = func() time.Time { return time.Now().Add(DefaultMaxTokenAge + time.Minute) }
	if err := receiver.Verify(token, body); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Verify(stale) = %v, want %v", err, ErrTokenExpired)
	}
	receiver.now = time.Now

	other := newSender(t)
	receiver.keys = other.KeySet()
	if err := receiver.Verify(token, body); err == nil {
		t.Error("Verify with foreign key set succeeded")
	}
}

func TestSendWithoutKey(t *testing.T) {
	s := NewPushNotificationSenderAuth()
	err := s.SendPushNotification(context.Background(), "http://127.0.0.1:1/notify", map[string]any{})
	if !errors.Is(err, ErrNoSigningKey) {
		t.Errorf("SendPushNotification() = %v, want %v", err, ErrNoSigningKey)
	}
}

func TestVerifyPushNotificationMissingBearer(t *testing.T) {
	receiver := NewPushNotificationReceiverAuth()
	req := httptest.NewRequest(http.MethodPost, "/notify", nil)
	if err := receiver.VerifyPushNotification(req); !errors.Is(err, ErrMissingBearer) {
		t.Errorf("VerifyPushNotification() = %v, want %v", err, ErrMissingBearer)
	}
}
