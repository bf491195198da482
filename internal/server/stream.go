package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/litescript/ls-orrery/internal/scene"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// stream pushes frames as JSON text messages, at most StreamHz per second.
// The latest frame is sent immediately on connect.
func (s *Server) stream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		s.logger.Warn("websocket upgrade failed", "client", c.ClientIP(), "err", err)
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.StreamOpened()
		defer s.metrics.StreamClosed()
	}
	s.logger.Info("stream client connected", "client", c.ClientIP())
	defer s.logger.Info("stream client disconnected", "client", c.ClientIP())

	frames, unsubscribe := s.driver.Subscribe(2)
	defer unsubscribe()

	// The read side only watches for the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(f scene.Frame) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(scene.ExportFrame(f))
	}

	minGap := time.Duration(float64(time.Second) / s.cfg.StreamHz)
	var lastSent time.Time
	if snap := s.driver.State().Snapshot(); snap.Frame != nil {
		if err := send(*snap.Frame); err != nil {
			return
		}
		lastSent = time.Now()
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case f, ok := <-frames:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "simulation stopped"),
					time.Now().Add(writeWait))
				return
			}
			if time.Since(lastSent) < minGap {
				continue
			}
			if err := send(f); err != nil {
				return
			}
			lastSent = time.Now()
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
