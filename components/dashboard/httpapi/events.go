package httpapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

const keepAliveInterval = 25 * time.Second

// HandleEvents streams refresh events as Server-Sent Events. Viewers only see
// catalog changes and their own saves.
func (h *Handlers) HandleEvents(c *fiber.Ctx) error {
	if h.Events == nil {
		return errNoEvents
	}
	viewer, err := viewerFrom(c)
	if err != nil {
		return err
	}
	events, cancel := h.Events.Subscribe()

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()
		if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil || w.Flush() != nil {
			return
		}
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				if !visibleTo(viewer, event) {
					continue
				}
				if err := writeSSE(w, event); err != nil {
					h.Logger.Debug("event stream closed", zap.String("user_id", viewer.UserID), zap.Error(err))
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil || w.Flush() != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeSSE(w *bufio.Writer, event dashboard.DashboardEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Reason, data); err != nil {
		return err
	}
	return w.Flush()
}

func visibleTo(viewer dashboard.ViewerContext, event dashboard.DashboardEvent) bool {
	return event.UserID == "" || event.UserID == viewer.UserID
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleEventsSocket pushes the same refresh events over a websocket.
func (h *Handlers) HandleEventsSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		viewer, _ := conn.Locals(viewerLocal).(dashboard.ViewerContext)
		events, cancel := h.Events.Subscribe()
		defer cancel()

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
			case <-closed:
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				if !visibleTo(viewer, event) {
					continue
				}
				if err := conn.WriteJSON(event); err != nil {
					h.Logger.Debug("event socket closed", zap.String("user_id", viewer.UserID), zap.Error(err))
					return
				}
			}
		}
	})
}
