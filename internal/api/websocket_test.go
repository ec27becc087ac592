package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer runs the hub and serves the router over a real listener
func (e *testEnv) startServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go e.hub.Run(ctx)
	t.Cleanup(cancel)

	server := httptest.NewServer(e.router)
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws"
}

func TestWebSocketAuthentication(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.registerAndLogin(t, "alice", "a@x.com", "secret1")
	server := env.startServer(t)

	tests := []struct {
		name       string
		query      string
		header     http.Header
		wantStatus int
	}{
		{name: "query token", query: "?token=" + token, wantStatus: http.StatusSwitchingProtocols},
		{name: "bearer header", header: http.Header{"Authorization": {"Bearer " + token}}, wantStatus: http.StatusSwitchingProtocols},
		{name: "no token", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", query: "?token=not-a-jwt", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, resp, err := gws.DefaultDialer.Dial(wsURL(server)+tt.query, tt.header)
			require.NotNil(t, resp)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusSwitchingProtocols {
				require.NoError(t, err)
				ws.Close()
			} else {
				assert.ErrorIs(t, err, gws.ErrBadHandshake)
			}
		})
	}
}

func TestWebSocketReceivesNewMessages(t *testing.T) {
	env := setupTestEnv(t)
	alice, aliceToken := env.registerAndLogin(t, "alice", "a@x.com", "secret1")
	bob, bobToken := env.registerAndLogin(t, "bob", "b@x.com", "secret2")
	server := env.startServer(t)

	ws, _, err := gws.DefaultDialer.Dial(wsURL(server)+"?token="+bobToken, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool { return env.hub.Connections(bob.ID) == 1 },
		time.Second, 10*time.Millisecond)

	w := env.doJSON(t, http.MethodPost, "/api/messages", aliceToken, gin.H{"receiver": bob.ID, "content": "hi"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type    string `json:"type"`
		Message struct {
			SenderID       string  `json:"sender"`
			SenderUsername string  `json:"sender_username"`
			Content        string  `json:"content"`
			Image          *string `json:"image"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, "message", event.Type)
	assert.Equal(t, alice.ID.String(), event.Message.SenderID)
	assert.Equal(t, "alice", event.Message.SenderUsername)
	assert.Equal(t, "hi", event.Message.Content)
	assert.Nil(t, event.Message.Image)
}
