package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsPingInterval = 30 * time.Second

// Originが無い（curl等）か FE_URL と同じなら許可
func newUpgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowedOrigin == "" || origin == allowedOrigin
		},
	}
}

// クライアントからの読み込みを捨て続け、切断されたらdoneを閉じる
func readUntilClosed(conn *websocket.Conn) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	return done
}

func ping(conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}
