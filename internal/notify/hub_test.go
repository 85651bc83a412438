package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketlive/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub, recipient string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, recipient)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.Connections(recipient) == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func TestHub_PublishReachesRecipientOnly(t *testing.T) {
	hub := NewHub(nil)
	conn := dialHub(t, hub, "user_1")

	n := &notification.Notification{ID: uuid.New(), Recipient: "user_1", Title: "Shipment delivered"}
	assert.Equal(t, 1, hub.Publish(n))
	assert.Equal(t, 0, hub.Publish(&notification.Notification{Recipient: "user_2"}))

	var got notification.Notification
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, "Shipment delivered", got.Title)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(nil)
	conn := dialHub(t, hub, "user_1")

	hub.Close()
	assert.Zero(t, hub.Connections("user_1"))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	hub := NewHub([]string{"https://app.example.com"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, "user_1")
	}))
	defer srv.Close()

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
