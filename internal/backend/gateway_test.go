package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"retrochat/internal/chat"
)

func newTestGateway(t *testing.T, handler http.Handler) (*Gateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGateway(GatewayConfig{
		BaseURL:           srv.URL,
		Token:             "test-token",
		HTTPTimeout:       2 * time.Second,
		DialTimeout:       time.Second,
		ReconnectInterval: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g, srv
}

func TestNewGatewayRequiresURL(t *testing.T) {
	_, err := NewGateway(GatewayConfig{})
	require.ErrorIs(t, err, ErrGatewayURL)
}

func TestFetchMessagesBuildsScopedQuery(t *testing.T) {
	after := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := []chat.Message{
		{ID: "m1", SenderID: "alice", Body: "hi", CreatedAt: after.Add(time.Second)},
	}

	var gotQuery map[string]string
	g, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/messages", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		gotQuery = map[string]string{
			"scope": r.URL.Query().Get("scope"),
			"peer":  r.URL.Query().Get("peer"),
			"after": r.URL.Query().Get("after"),
		}
		require.NoError(t, json.NewEncoder(w).Encode(rows))
	}))

	scope := chat.Direct("bob")
	got, err := g.FetchMessages(context.Background(), MessageFilter{Scope: &scope, After: &after})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "m1", got[0].ID)

	require.Equal(t, "direct", gotQuery["scope"])
	require.Equal(t, "bob", gotQuery["peer"])
	require.Equal(t, after.Format(time.RFC3339Nano), gotQuery["after"])
}

func TestFetchMessagesPublicScopeOmitsPeer(t *testing.T) {
	g, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "public", r.URL.Query().Get("scope"))
		require.Empty(t, r.URL.Query().Get("peer"))
		require.Empty(t, r.URL.Query().Get("after"))
		require.NoError(t, json.NewEncoder(w).Encode([]chat.Message{}))
	}))

	scope := chat.Public()
	_, err := g.FetchMessages(context.Background(), MessageFilter{Scope: &scope})
	require.NoError(t, err)
}

func TestInsertMessagePostsDraftAndDecodesRow(t *testing.T) {
	g, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/messages", r.URL.Path)

		var req insertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "hello", req.Body)
		require.Equal(t, "bob", req.RecipientID)
		require.Equal(t, "tok-1", req.ClientToken)

		w.WriteHeader(http.StatusCreated)
		require.NoError(t, json.NewEncoder(w).Encode(chat.Message{
			ID:          "srv-1",
			SenderID:    "me",
			RecipientID: "bob",
			Body:        "hello",
			ClientToken: "tok-1",
			CreatedAt:   time.Now().UTC(),
		}))
	}))

	row, err := g.InsertMessage(context.Background(), chat.Message{
		ID:          "local-1",
		Body:        "hello",
		RecipientID: "bob",
		ClientToken: "tok-1",
		Provisional: true,
	})
	require.NoError(t, err)
	require.Equal(t, "srv-1", row.ID)
	require.False(t, row.Provisional)
}

func TestStatusErrorIncludesBodyDetail(t *testing.T) {
	g, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	}))

	_, err := g.FetchParticipants(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
	require.Contains(t, err.Error(), "token expired")
}

func TestSocketURLDerivation(t *testing.T) {
	g, err := NewGateway(GatewayConfig{BaseURL: "https://chat.example.com/app", Token: "tok"})
	require.NoError(t, err)
	require.Equal(t, "wss://chat.example.com/app/api/realtime?token=tok", g.socketURL())

	g, err = NewGateway(GatewayConfig{BaseURL: "http://localhost:8080"})
	require.NoError(t, err)
	require.Equal(t, "ws://localhost:8080/api/realtime", g.socketURL())
}

func TestAnnouncePresenceWithoutSocketFails(t *testing.T) {
	g, err := NewGateway(GatewayConfig{BaseURL: "http://localhost:0"})
	require.NoError(t, err)
	require.ErrorIs(t, g.AnnouncePresence(context.Background(), "me", "Me"), ErrNotConnected)
}

func TestDecodeFrameRequiresType(t *testing.T) {
	_, err := decodeFrame([]byte(`{"participants":["a"]}`))
	require.Error(t, err)

	f, err := decodeFrame([]byte(`{"type":"presence.sync","participants":["a","b"]}`))
	require.NoError(t, err)
	require.Equal(t, framePresenceSync, f.Type)
	require.Equal(t, []string{"a", "b"}, f.Participants)

	_, err = decodeFrame([]byte(`{broken`))
	require.Error(t, err)
}
