package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/sacredsites/internal/core/filter"
	"github.com/samirrijal/sacredsites/internal/session"
)

const pingInterval = 30 * time.Second

// MapSessionHandler returns a handler that runs one directory session per
// WebSocket connection. The page profile comes from ?profile= (default
// homepage). Client frames are session actions; every reply is a session
// message.
func MapSessionHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()

		var mu sync.Mutex
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		profile, err := filter.LookupProfile(c.Query("profile", filter.Homepage.Name))
		if err != nil {
			_ = writeJSON(session.Message{Type: session.TypeError, Code: "bad_request", Error: err.Error()})
			return
		}

		sess := session.New(profile, deps.Session, deps.Sites, deps.Events,
			func(m session.Message) error { return writeJSON(m) }, slog.Default())
		logger := slog.Default().With("session", sess.ID(), "remote", remoteAddr)
		logger.Info("map session connected", "profile", profile.Name)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Keep-alive ping
		go func() {
			ticker := time.NewTicker(pingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						cancel()
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		// The reader closes inbound when the client goes away, which ends Run.
		inbound := make(chan []byte)
		go func() {
			defer close(inbound)
			for {
				_, msg, err := c.ReadMessage()
				if err != nil {
					return
				}
				select {
				case inbound <- msg:
				case <-ctx.Done():
					return
				}
			}
		}()

		if err := sess.Run(ctx, inbound); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("map session ended", "error", err)
		}
		cancel()
		logger.Info("map session disconnected")
	}
}
