package server

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/polarcraft/polarstudio/internal/benchfile"
	"github.com/polarcraft/polarstudio/internal/share"
	"github.com/polarcraft/polarstudio/internal/validation"
)

const (
	// Maximum bench document accepted in one message.
	maxMessageSize = 64 << 10
	// Time allowed to write a reply.
	writeWait = 10 * time.Second
	// An idle editor is disconnected after this long.
	idleTimeout = 10 * time.Minute
)

// EstimateReply answers one bench document on /ws/estimate. Exactly one
// of Preview and Error is set.
type EstimateReply struct {
	Seq     int            `json:"seq"`
	Preview *share.Preview `json:"preview,omitempty"`
	Error   *ErrorBody     `json:"error,omitempty"`
}

// HandleEstimateSocket streams length estimates. Every text message is a
// bench JSON document; every reply is an EstimateReply. An invalid
// document gets an error reply and the connection stays open.
func (s *Server) HandleEstimateSocket(w http.ResponseWriter, r *http.Request) {
	if err := validation.ValidateOrigin(r.Header.Get("Origin"), s.allowed); err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket origin rejected",
			"remote", r.RemoteAddr)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The origin was checked against the allowlist above, which also
		// admits the share origin on a different host.
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket upgrade failed")
		return
	}
	defer conn.CloseNow()

	s.metrics.SocketOpened()
	defer s.metrics.SocketClosed()

	conn.SetReadLimit(maxMessageSize)
	lang := requestLanguage(r)
	ctx := r.Context()

	for seq := 1; ; seq++ {
		readCtx, cancel := context.WithTimeout(ctx, idleTimeout)
		typ, data, err := conn.Read(readCtx)
		cancel()
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				s.logger.Debug(ctx, "Estimate stream closed", "error", err.Error())
			}
			return
		}

		reply := EstimateReply{Seq: seq}
		if typ != websocket.MessageText {
			body := ErrorBody{Kind: "protocol", Code: "ERR_BINARY_MESSAGE", Message: "expected a text message", Record: -1}
			reply.Error = &body
		} else if state, err := s.parser.Parse(data, benchfile.FormatJSON); err != nil {
			body := errorBody(err, lang)
			reply.Error = &body
		} else {
			preview := s.builder.Preview(state)
			reply.Preview = &preview
			s.metrics.EstimateServed("websocket")
		}

		writeCtx, cancel := context.WithTimeout(ctx, writeWait)
		err = wsjson.Write(writeCtx, conn, reply)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, err, "Estimate reply failed", "seq", seq)
			return
		}
	}
}
