// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth signs and verifies push notifications sent from an agent server to a
// client-provided webhook.
//
// The sender owns an RSA signing key published as a JWK Set. Each notification is
// POSTed with an "Authorization: Bearer <jwt>" header whose claims carry the issue
// time and the SHA-256 of the exact request body. The receiver fetches the JWK Set,
// checks the signature, the body hash and the token age.
package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/go-a2a/a2a-samples/internal/pool"
)

const (
	// ClaimRequestBodySHA256 is the private claim carrying the hex SHA-256 of the body.
	ClaimRequestBodySHA256 = "request_body_sha256"

	// ValidationTokenParam is the query parameter used for URL ownership checks.
	ValidationTokenParam = "validationToken"

	// DefaultMaxTokenAge is how old a notification token may be before it is rejected.
	DefaultMaxTokenAge = 5 * time.Minute

	defaultTimeout = 10 * time.Second
	rsaKeyBits     = 2048
)

var (
	// ErrNoSigningKey is returned when a notification is sent before GenerateJWK.
	ErrNoSigningKey = errors.New("push notification signing key not generated")

	// ErrMissingBearer is returned when a notification carries no bearer token.
	ErrMissingBearer = errors.New("missing bearer token")

	// ErrBodyHashMismatch is returned when the body does not match the signed hash.
	ErrBodyHashMismatch = errors.New("request body hash mismatch")

	// ErrTokenExpired is returned when the token is older than the allowed age.
	ErrTokenExpired = errors.New("push notification token expired")
)

// SenderOption configures a PushNotificationSenderAuth.
type SenderOption func(*PushNotificationSenderAuth)

// WithSenderHTTPClient sets the client used for URL verification and delivery.
func WithSenderHTTPClient(c *http.Client) SenderOption {
	return func(a *PushNotificationSenderAuth) { a.client = c }
}

// WithSenderLogger sets the logger.
func WithSenderLogger(l *slog.Logger) SenderOption {
	return func(a *PushNotificationSenderAuth) { a.logger = l }
}

// PushNotificationSenderAuth signs and delivers push notifications.
type PushNotificationSenderAuth struct {
	client *http.Client
	logger *slog.Logger
	now    func() time.Time

	mu         sync.RWMutex
	publicKeys jwk.Set
	privateKey jwk.Key
}

// NewPushNotificationSenderAuth returns a sender with an empty key set.
// Call GenerateJWK before sending notifications.
func NewPushNotificationSenderAuth(opts ...SenderOption) *PushNotificationSenderAuth {
	a := &PushNotificationSenderAuth{
		client:     &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
		now:        time.Now,
		publicKeys: jwk.NewSet(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GenerateJWK creates a new RSA signing key, publishes its public half and makes it
// the current signing key. Previously published keys stay in the set.
func (a *PushNotificationSenderAuth) GenerateJWK() error {
	raw, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return fmt.Errorf("generate rsa key: %w", err)
	}

	priv, err := jwk.Import(raw)
	if err != nil {
		return fmt.Errorf("import rsa key: %w", err)
	}
	kid := strings.ReplaceAll(uuid.NewString(), "-", "")
	for name, v := range map[string]any{
		jwk.KeyIDKey:     kid,
		jwk.KeyUsageKey:  "sig",
		jwk.AlgorithmKey: jwa.RS256(),
	} {
		if err := priv.Set(name, v); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}

	pub, err := jwk.PublicKeyOf(priv)
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.publicKeys.AddKey(pub); err != nil {
		return fmt.Errorf("publish key: %w", err)
	}
	a.privateKey = priv
	a.logger.Info("generated push notification signing key", slog.String("kid", kid))
	return nil
}

// KeySet returns the published public keys.
func (a *PushNotificationSenderAuth) KeySet() jwk.Set {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.publicKeys
}

// JWKSHandler serves the public keys as {"keys": [...]}.
func (a *PushNotificationSenderAuth) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.mu.RLock()
		body, err := json.Marshal(a.publicKeys)
		a.mu.RUnlock()
		if err != nil {
			a.logger.ErrorContext(r.Context(), "marshal jwks", slog.Any("error", err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}
}

// VerifyPushNotificationURL checks that rawURL is controlled by the client by sending a
// GET with a fresh validation token and requiring the body to echo it back.
// Any failure, including a timeout, yields false.
func (a *PushNotificationSenderAuth) VerifyPushNotificationURL(ctx context.Context, rawURL string) bool {
	logger := a.logger.With(slog.String("url", rawURL))

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		logger.WarnContext(ctx, "invalid push notification url", slog.Any("error", err))
		return false
	}
	token := uuid.NewString()
	q := u.Query()
	q.Set(ValidationTokenParam, token)
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		logger.WarnContext(ctx, "build verification request", slog.Any("error", err))
		return false
	}
	resp, err := a.client.Do(req)
	if err != nil {
		logger.WarnContext(ctx, "push notification url verification failed", slog.Any("error", err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		logger.WarnContext(ctx, "push notification url verification failed", slog.Int("status", resp.StatusCode))
		return false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if err != nil {
		logger.WarnContext(ctx, "read verification response", slog.Any("error", err))
		return false
	}
	ok := strings.TrimSpace(string(body)) == token
	logger.DebugContext(ctx, "verified push notification url", slog.Bool("ok", ok))
	return ok
}

// SendPushNotification POSTs data as JSON to rawURL with a signed bearer token.
func (a *PushNotificationSenderAuth) SendPushNotification(ctx context.Context, rawURL string, data any) error {
	buf := pool.Bytes.Get()
	defer pool.Bytes.Put(buf)

	if err := json.MarshalWrite(buf, data); err != nil {
		return fmt.Errorf("marshal push notification: %w", err)
	}
	token, err := a.signBody(buf.Bytes())
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("build push notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("send push notification: unexpected status %s", resp.Status)
	}
	a.logger.DebugContext(ctx, "push notification sent", slog.String("url", rawURL))
	return nil
}

func (a *PushNotificationSenderAuth) signBody(body []byte) (string, error) {
	a.mu.RLock()
	key := a.privateKey
	a.mu.RUnlock()
	if key == nil {
		return "", ErrNoSigningKey
	}

	sum := sha256.Sum256(body)
	tok, err := jwt.NewBuilder().
		IssuedAt(a.now()).
		Claim(ClaimRequestBodySHA256, hex.EncodeToString(sum[:])).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256(), key))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}

// ReceiverOption configures a PushNotificationReceiverAuth.
type ReceiverOption func(*PushNotificationReceiverAuth)

// WithReceiverHTTPClient sets the client used to fetch the JWK Set.
func WithReceiverHTTPClient(c *http.Client) ReceiverOption {
	return func(r *PushNotificationReceiverAuth) { r.client = c }
}

// WithMaxTokenAge overrides DefaultMaxTokenAge.
func WithMaxTokenAge(d time.Duration) ReceiverOption {
	return func(r *PushNotificationReceiverAuth) { r.maxAge = d }
}

// PushNotificationReceiverAuth verifies push notifications on the client side.
type PushNotificationReceiverAuth struct {
	client *http.Client
	maxAge time.Duration
	now    func() time.Time

	mu   sync.RWMutex
	keys jwk.Set
}

// NewPushNotificationReceiverAuth returns a receiver without keys.
// Call LoadJWKS before verifying notifications.
func NewPushNotificationReceiverAuth(opts ...ReceiverOption) *PushNotificationReceiverAuth {
	r := &PushNotificationReceiverAuth{
		client: &http.Client{Timeout: defaultTimeout},
		maxAge: DefaultMaxTokenAge,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadJWKS fetches and caches the sender's public keys from jwksURL.
func (r *PushNotificationReceiverAuth) LoadJWKS(ctx context.Context, jwksURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return fmt.Errorf("build jwks request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read jwks: %w", err)
	}
	set, err := jwk.Parse(body)
	if err != nil {
		return fmt.Errorf("parse jwks: %w", err)
	}

	r.mu.Lock()
	r.keys = set
	r.mu.Unlock()
	return nil
}

// VerifyPushNotification verifies the signature, body hash and age of req.
// The request body is restored so handlers can read it afterwards.
func (r *PushNotificationReceiverAuth) VerifyPushNotification(req *http.Request) error {
	header := req.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return ErrMissingBearer
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(body))

	return r.Verify(token, body)
}

// Verify checks token against body.
func (r *PushNotificationReceiverAuth) Verify(token string, body []byte) error {
	r.mu.RLock()
	keys := r.keys
	r.mu.RUnlock()
	if keys == nil {
		return errors.New("jwks not loaded")
	}

	tok, err := jwt.Parse([]byte(token), jwt.WithKeySet(keys), jwt.WithValidate(false))
	if err != nil {
		return fmt.Errorf("verify token: %w", err)
	}

	var want string
	if err := tok.Get(ClaimRequestBodySHA256, &want); err != nil {
		return fmt.Errorf("missing %s claim: %w", ClaimRequestBodySHA256, err)
	}
	sum := sha256.Sum256(body)
	if hex.EncodeToString(sum[:]) != want {
		return ErrBodyHashMismatch
	}

	iat, ok := tok.IssuedAt()
	if !ok {
		return errors.New("missing iat claim")
	}
	if r.now().Sub(iat) > r.maxAge {
		return ErrTokenExpired
	}
	return nil
}

// Middleware rejects requests whose push notification token does not verify.
func (r *PushNotificationReceiverAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := r.VerifyPushNotification(req); err != nil {
			http.Error(w, fmt.Sprintf("invalid push notification: %v", err), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, req)
	})
}
