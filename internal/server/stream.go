package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Websocket keepalive settings
const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamReadLimit  = 512
)

// handleTimeStream upgrades to a websocket and pushes the current time as a
// text frame immediately and then every stream interval
func (s *Server) handleTimeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		s.logger.Warn("Websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(s.streams)
	defer cancel()

	go s.readPump(conn, cancel)

	s.logger.Debug("Time stream opened", "remote", r.RemoteAddr)
	defer s.logger.Debug("Time stream closed", "remote", r.RemoteAddr)

	push := time.NewTicker(s.cfg.Server.StreamEvery())
	defer push.Stop()
	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	if err := s.pushTime(conn); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(streamWriteWait))
			return
		case <-push.C:
			if err := s.pushTime(conn); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				s.logger.Debug("Ping failed", "error", err)
				return
			}
		}
	}
}

func (s *Server) pushTime(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(s.currentTime())); err != nil {
		s.logger.Debug("Failed to push time", "error", err)
		return err
	}
	return nil
}

// readPump drains client frames so control messages are processed, and
// cancels the stream when the client goes away
func (s *Server) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
