package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"retrochat/internal/chat"
	"retrochat/internal/logging"
)

const (
	defaultHTTPTimeout       = 10 * time.Second
	defaultDialTimeout       = 5 * time.Second
	defaultReconnectInterval = 2 * time.Second
)

// Gateway errors.
var (
	ErrNotConnected = errors.New("realtime socket not connected")
	ErrGatewayURL   = errors.New("gateway URL required")
)

// GatewayConfig configures the chat gateway client.
type GatewayConfig struct {
	// BaseURL is the gateway origin, e.g. https://chat.example.com.
	BaseURL string

	// Token is the bearer access token.
	Token string

	HTTPTimeout       time.Duration
	DialTimeout       time.Duration
	ReconnectInterval time.Duration
}

// Gateway talks to the chat backend: REST for queries and writes, a
// websocket for the realtime feed. It implements Backend.
type Gateway struct {
	cfg    GatewayConfig
	base   *url.URL
	client *http.Client
	log    zerolog.Logger

	realtime *realtime
}

// NewGateway creates a gateway client. The realtime socket is dialed
// lazily on the first subscription.
func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	trimmed := strings.TrimSpace(cfg.BaseURL)
	if trimmed == "" {
		return nil, ErrGatewayURL
	}
	base, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse gateway URL: %w", err)
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}

	g := &Gateway{
		cfg:    cfg,
		base:   base,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		log:    logging.Component("gateway"),
	}
	g.realtime = newRealtime(g)
	return g, nil
}

// Close tears down the realtime socket.
func (g *Gateway) Close() error {
	return g.realtime.close()
}

// FetchMessages returns matching messages ordered by creation time
// ascending.
func (g *Gateway) FetchMessages(ctx context.Context, filter MessageFilter) ([]chat.Message, error) {
	query := url.Values{}
	if filter.Scope != nil {
		if filter.Scope.IsDirect() {
			query.Set("scope", "direct")
			query.Set("peer", filter.Scope.Other())
		} else {
			query.Set("scope", "public")
		}
	}
	if filter.After != nil {
		query.Set("after", filter.After.UTC().Format(time.RFC3339Nano))
	}

	var messages []chat.Message
	if err := g.getJSON(ctx, "/api/messages", query, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// FetchParticipants returns the participant directory ordered by
// username.
func (g *Gateway) FetchParticipants(ctx context.Context) ([]chat.Participant, error) {
	var participants []chat.Participant
	if err := g.getJSON(ctx, "/api/participants", nil, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

type insertRequest struct {
	Body        string `json:"body"`
	RecipientID string `json:"recipient_id,omitempty"`
	ClientToken string `json:"client_token,omitempty"`
}

// InsertMessage persists the draft and returns the confirmed row. The
// sender is taken from the bearer token server-side.
func (g *Gateway) InsertMessage(ctx context.Context, draft chat.Message) (chat.Message, error) {
	payload := insertRequest{
		Body:        draft.Body,
		RecipientID: draft.RecipientID,
		ClientToken: draft.ClientToken,
	}

	var confirmed chat.Message
	if err := g.postJSON(ctx, "/api/messages", payload, &confirmed); err != nil {
		return chat.Message{}, err
	}
	return confirmed, nil
}

// SubscribeMessages registers for message-change events on the
// realtime socket.
func (g *Gateway) SubscribeMessages(ctx context.Context, h MessageHandlers) (Subscription, error) {
	return g.realtime.subscribeMessages(ctx, h)
}

// SubscribePresence registers for presence signals on the realtime
// socket.
func (g *Gateway) SubscribePresence(ctx context.Context, h PresenceHandlers) (Subscription, error) {
	return g.realtime.subscribePresence(ctx, h)
}

// AnnouncePresence marks the participant online.
func (g *Gateway) AnnouncePresence(ctx context.Context, participantID, displayName string) error {
	return g.realtime.send(frame{
		Type:          framePresenceAnnounce,
		ParticipantID: participantID,
		DisplayName:   displayName,
	})
}

// AnnounceDeparture marks the participant offline.
func (g *Gateway) AnnounceDeparture(ctx context.Context, participantID string) error {
	return g.realtime.send(frame{
		Type:          framePresenceLeave,
		ParticipantID: participantID,
	})
}

func (g *Gateway) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := g.endpoint(path, query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return g.statusError(path, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (g *Gateway) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(path, nil), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return g.statusError(path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (g *Gateway) endpoint(path string, query url.Values) string {
	u := *g.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (g *Gateway) authorize(req *http.Request) {
	if g.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	}
}

func (g *Gateway) statusError(path string, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	trimmed := strings.TrimSpace(string(detail))
	if trimmed == "" {
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}
	return fmt.Errorf("%s: unexpected status %d: %s", path, resp.StatusCode, trimmed)
}

// socketURL derives the websocket endpoint from the base URL.
func (g *Gateway) socketURL() string {
	u := *g.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/realtime"
	if g.cfg.Token != "" {
		u.RawQuery = url.Values{"token": {g.cfg.Token}}.Encode()
	}
	return u.String()
}

var _ Backend = (*Gateway)(nil)
