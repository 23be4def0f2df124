// handlers/stream.go
package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"vpay-gamification/events"

	"github.com/gofiber/fiber/v2"
)

const sseKeepAlive = 15 * time.Second

// StreamUserEventsSSE pushes quest, level, badge, streak and reward events for
// the authenticated user.
func StreamUserEventsSSE(hub *events.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := currentUser(c)

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no") // nginx

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			stream := hub.Subscribe(ctx, userID, 32)
			ticker := time.NewTicker(sseKeepAlive)
			defer ticker.Stop()

			w.WriteString(":\n\n")
			if err := w.Flush(); err != nil {
				return
			}
			log.Printf("[SSE] %s connected (%d subscribers)", userID, hub.Subscribers())

			for {
				select {
				case evt, ok := <-stream:
					if !ok {
						return
					}
					payload, err := json.Marshal(evt)
					if err != nil {
						log.Printf("[SSE] encode %s event for %s: %v", evt.Type, userID, err)
						continue
					}
					fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, payload)
					if err := w.Flush(); err != nil {
						log.Printf("[SSE] %s disconnected", userID)
						return
					}

				case <-ticker.C:
					w.WriteString(":\n\n")
					if err := w.Flush(); err != nil {
						log.Printf("[SSE] %s disconnected", userID)
						return
					}
				}
			}
		})

		return nil
	}
}
