package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func dialFeed(t *testing.T, hub *Hub, quizID uint) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.RegisterClient(conn, quizID, 1)
	}))
	t.Cleanup(server.Close)

	before := hub.ClientCount(quizID)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount(quizID) == before+1 }, time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubPublishReachesSubscribers(t *testing.T) {
	hub := startHub(t)
	first := dialFeed(t, hub, 7)
	second := dialFeed(t, hub, 7)

	hub.Publish(7, EventQuizUpdated, map[string]string{"title": "Go"})

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		assert.Equal(t, EventQuizUpdated, msg.Type)
		assert.Equal(t, uint(7), msg.QuizID)
		assert.Equal(t, map[string]interface{}{"title": "Go"}, msg.Payload)
	}
}

func TestHubIsolatesQuizzes(t *testing.T) {
	hub := startHub(t)
	watcher := dialFeed(t, hub, 1)
	other := dialFeed(t, hub, 2)

	hub.Publish(2, EventQuestionCreated, nil)
	hub.Publish(1, EventQuestionDeleted, nil)

	assert.Equal(t, EventQuestionDeleted, readMessage(t, watcher).Type)
	assert.Equal(t, EventQuestionCreated, readMessage(t, other).Type)
}

func TestHubAnswersPing(t *testing.T) {
	hub := startHub(t)
	conn := dialFeed(t, hub, 3)

	raw, err := json.Marshal(Message{Type: "ping"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))

	msg := readMessage(t, conn)
	assert.Equal(t, "pong", msg.Type)
	assert.Equal(t, uint(3), msg.QuizID)
}

func TestHubUnregistersOnClose(t *testing.T) {
	hub := startHub(t)
	conn := dialFeed(t, hub, 4)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount(4) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	hub := startHub(t)
	assert.NotPanics(t, func() { hub.Publish(99, EventQuizDeleted, nil) })
}

func TestHubPublishDoesNotBlockWhenQueueFull(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(hub.broadcast)+10; i++ {
			hub.Publish(1, EventOptionUpdated, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with a full queue")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := startHub(t)
	slow := &Client{hub: hub, id: "slow", send: make(chan []byte, 1), quizID: 5}
	slow.send <- []byte("backlog")
	hub.register <- slow
	require.Eventually(t, func() bool { return hub.ClientCount(5) == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(5, EventQuestionUpdated, nil)

	require.Eventually(t, func() bool { return hub.ClientCount(5) == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []byte("backlog"), <-slow.send)
	_, open := <-slow.send
	assert.False(t, open)
}
