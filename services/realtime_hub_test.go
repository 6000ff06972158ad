package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Broadcasts and keepalive pings share one connection, so interleaving them
// from separate goroutines must stay safe.
func TestBroadcastAndPingShareOneWriter(t *testing.T) {
	hub := NewRealtimeHub()
	upgrader := websocket.Upgrader{}
	registered := make(chan *WSClient, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		cl := &WSClient{UserID: 7, Conn: conn}
		hub.Register(cl)
		registered <- cl
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	cl := <-registered

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for received < 100 {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			received++
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.BroadcastProgress(7, map[string]int{"total_calories": j})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.NoError(t, cl.Write(websocket.PingMessage, nil))
			}
		}()
	}
	wg.Wait()

	<-done
	assert.Equal(t, 100, received)

	hub.Unregister(cl)
}
