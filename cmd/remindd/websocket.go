package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// handleResponseSocket streams confirmation answers over a websocket. A
// chat frontend keeps one connection open and pushes an answer frame per
// user reaction instead of POSTing each one.
func (s *Server) handleResponseSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to accept websocket connection")
			return
		}
		defer conn.CloseNow()

		s.logger.WithField("remote", r.RemoteAddr).Info("Response socket connected")

		for {
			var frame promptResponse
			if err := wsjson.Read(r.Context(), conn, &frame); err != nil {
				if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
					errors.Is(err, context.Canceled) {
					return
				}
				s.logger.WithError(err).Debug("Response socket read failed, closing")
				return
			}

			if frame.Handle == "" || frame.ActorID == "" {
				continue
			}

			accepted := s.reminders.Respond(frame.Handle, frame.ActorID, frame.Approve)
			if err := wsjson.Write(r.Context(), conn, promptResponseResult{Accepted: accepted}); err != nil {
				s.logger.WithError(err).Debug("Response socket write failed, closing")
				return
			}
		}
	}
}
