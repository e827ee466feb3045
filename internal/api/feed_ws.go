package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"socialite/internal/core"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// streamFeed pushes the current feed snapshot and then every snapshot
// change over a websocket. The projector subscription is released when
// the socket goes away.
func (b *Backend) streamFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.Logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Latest-wins buffer: a slow client only ever misses intermediate
	// snapshots, never the newest one.
	updates := make(chan []core.Post, 1)
	push := func(posts []core.Post) {
		select {
		case <-updates:
		default:
		}
		updates <- posts
	}

	unsubscribe := b.Feed.OnUpdate(push)
	defer unsubscribe()

	push(b.Feed.CurrentPosts())

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case posts := <-updates:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second)) //nolint:errcheck
			if err := conn.WriteJSON(viewPosts(posts)); err != nil {
				return
			}
		}
	}
}
