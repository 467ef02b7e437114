package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"cv-builder/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const keepAliveInterval = 15 * time.Second

// writeEvent writes one Server-Sent Event.
func writeEvent(w io.Writer, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", jsonData)
	return err
}

// Events streams session snapshots as Server-Sent Events. Slow clients
// miss intermediate snapshots, never the latest one.
func (h *Handler) Events(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	updates := make(chan usecase.Snapshot, 1)
	unsubscribe := s.Subscribe(func(snap usecase.Snapshot) {
		select {
		case updates <- snap:
		default:
			// replace the pending snapshot with the newer one
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- snap:
			default:
			}
		}
	})
	initial := s.Snapshot()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		if err := writeEvent(w, "snapshot", initial); err != nil || w.Flush() != nil {
			return
		}
		ping := time.NewTicker(keepAliveInterval)
		defer ping.Stop()
		for {
			select {
			case snap := <-updates:
				if err := writeEvent(w, "snapshot", snap); err != nil {
					return
				}
			case <-ping.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
			}
			if err := w.Flush(); err != nil {
				h.logger.Debug("event stream closed", "session", s.ID(), "err", err)
				return
			}
		}
	}))
	return nil
}
