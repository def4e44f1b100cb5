// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// EventQuery selects events by start time.
type EventQuery struct {
	TimeMin    time.Time
	TimeMax    time.Time // zero means no upper bound
	MaxResults int64
}

// EventLister lists calendar events.
type EventLister interface {
	ListEvents(ctx context.Context, q EventQuery) ([]*gcal.Event, error)
}

// GoogleCalendar lists the events of the primary Google calendar. The OAuth token
// is obtained on first use.
type GoogleCalendar struct {
	credentialsFile string
	tokenFile       string
	logger          *slog.Logger

	mu      sync.Mutex
	service *gcal.Service
}

var _ EventLister = (*GoogleCalendar)(nil)

// NewGoogleCalendar returns a lister authorized by the OAuth client in
// credentialsFile, caching the user token in tokenFile.
func NewGoogleCalendar(credentialsFile, tokenFile string, logger *slog.Logger) *GoogleCalendar {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleCalendar{
		credentialsFile: credentialsFile,
		tokenFile:       tokenFile,
		logger:          logger,
	}
}

// ListEvents implements [EventLister]. Recurring events are expanded and ordered
// by start time.
func (g *GoogleCalendar) ListEvents(ctx context.Context, q EventQuery) ([]*gcal.Event, error) {
	svc, err := g.serviceFor(ctx)
	if err != nil {
		return nil, err
	}
	call := svc.Events.List("primary").
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(q.MaxResults).
		TimeMin(q.TimeMin.Format(time.RFC3339Nano))
	if !q.TimeMax.IsZero() {
		call = call.TimeMax(q.TimeMax.Format(time.RFC3339Nano))
	}
	events, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events.Items, nil
}

func (g *GoogleCalendar) serviceFor(ctx context.Context) (*gcal.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.service != nil {
		return g.service, nil
	}

	b, err := os.ReadFile(g.credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, gcal.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret file: %w", err)
	}

	tok, err := g.loadToken()
	if err != nil {
		if tok, err = g.authorize(ctx, cfg); err != nil {
			return nil, err
		}
	}
	// The token source outlives ctx and refreshes on demand.
	ts := cfg.TokenSource(context.WithoutCancel(ctx), tok)
	fresh, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if fresh.AccessToken != tok.AccessToken {
		if err := g.saveToken(fresh); err != nil {
			g.logger.WarnContext(ctx, "cache refreshed token", "path", g.tokenFile, "error", err)
		}
	}

	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	g.service = svc
	return svc, nil
}

func (g *GoogleCalendar) loadToken() (*oauth2.Token, error) {
	b, err := os.ReadFile(g.tokenFile)
	if err != nil {
		return nil, err
	}
	tok := new(oauth2.Token)
	if err := json.Unmarshal(b, tok); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	return tok, nil
}

func (g *GoogleCalendar) saveToken(tok *oauth2.Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(g.tokenFile, b, 0o600)
}

// authorize runs the installed application flow: the user opens the logged URL,
// consents, and is redirected to a loopback listener that receives the code.
func (g *GoogleCalendar) authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for oauth redirect: %w", err)
	}
	defer ln.Close()

	cfg.RedirectURL = "http://" + ln.Addr().String() + "/"
	state := uuid.NewString()

	codes := make(chan string, 1)
	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("state") != state {
				http.Error(w, "state mismatch", http.StatusBadRequest)
				return
			}
			select {
			case codes <- r.URL.Query().Get("code"):
			default:
			}
			fmt.Fprintln(w, "The authentication flow has completed. You may close this window.")
		}),
	}
	go srv.Serve(ln)
	defer srv.Close()

	g.logger.InfoContext(ctx, "authorize calendar access by visiting this URL", "url", cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	var code string
	select {
	case code = <-codes:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if code == "" {
		return nil, errors.New("oauth redirect carried no code")
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange auth code: %w", err)
	}
	if err := g.saveToken(tok); err != nil {
		g.logger.WarnContext(ctx, "cache token", "path", g.tokenFile, "error", err)
	}
	return tok, nil
}
