package lume

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// gorilla/websocket panics on overlapping data-frame writes, so an
// unserialized write path fails this test immediately. This is the shape of
// a server ping arriving while the ping ticker fires.
func TestWriteJSONSerializesConcurrentWriters(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	w := NewWSClient(wsURL, nil, nil, testLogger())

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if err := w.writeJSON(conn, gqlMessage{Type: gqlPing}); err != nil {
					t.Errorf("writeJSON: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
