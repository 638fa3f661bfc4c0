package socket_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/dmora/condarun"
	"github.com/dmora/condarun/transporttest"
)

func TestCompliance(t *testing.T) {
	transporttest.RunTransportTests(t, func(t *testing.T) condarun.Transport {
		upgrader := websocket.Upgrader{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			send(conn, `{"progress":{"step":1}}`)
			send(conn, `{"finished":{"ok":true}}`)
			_, _, _ = conn.ReadMessage()
		}))
		t.Cleanup(srv.Close)
		return newTransport(t, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api_ws/")
	})
}

