package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/kidquest-backend/internal/response"
	"github.com/stemsi/kidquest-backend/internal/service"
	"github.com/stemsi/kidquest-backend/internal/view"
	ws "github.com/stemsi/kidquest-backend/internal/websocket"
)

const outboundBuffer = 16

// wsError is an error reply queued for the writer goroutine.
type wsError struct {
	code response.ErrCode
	msg  string
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams play session state over WebSocket.
type WSHandler struct {
	playService *service.PlayService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(playService *service.PlayService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		playService: playService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:session_id/stream?token=...
// Pushes a state event on every session change and accepts play actions.
// Timer-driven changes (countdown expiry, dwell, mismatch flip-back) arrive
// without any client action.
func (h *WSHandler) SessionStream(c *gin.Context) {
	playerID, sessionID, ok := sessionIDs(c)
	if !ok {
		return
	}

	updates, unsubscribe, err := h.playService.Subscribe(c.Request.Context(), sessionID, playerID)
	if err != nil {
		status, code := errorStatus(err)
		response.Fail(c, status, code)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("player_id", playerID.String()).
		Str("session_id", sessionID.String()).
		Logger()
	wsLog.Info().Msg("Player connected")

	// gorilla/websocket allows one concurrent writer; every write goes
	// through the writer goroutine.
	outbound := make(chan any, outboundBuffer)
	done := make(chan struct{})
	go h.writeLoop(conn, wsLog, updates, outbound, done)

	ctx := context.Background()
	for {
		var req ws.Request
		if err := ws.ReadJSON(conn, &req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		reply := h.dispatch(ctx, wsLog, sessionID, playerID, &req)
		if reply == nil {
			continue
		}
		select {
		case outbound <- reply:
		case <-done:
			return
		}
	}

	close(outbound)
	<-done
}

// writeLoop forwards session updates and replies until the session ends or
// the reader stops.
func (h *WSHandler) writeLoop(conn *websocket.Conn, log zerolog.Logger, updates <-chan view.Session, outbound <-chan any, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case v, ok := <-updates:
			if !ok {
				// Session ended or was reaped. Closing unblocks the reader.
				ws.Close(conn, "session ended")
				return
			}
			if err := ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, Session: v}); err != nil {
				log.Debug().Err(err).Msg("State write failed")
				conn.Close()
				return
			}
		case msg, ok := <-outbound:
			if !ok {
				return
			}
			var err error
			if e, isErr := msg.(wsError); isErr {
				err = ws.WriteError(conn, string(e.code), e.msg)
			} else {
				err = ws.WriteTyped(conn, msg)
			}
			if err != nil {
				log.Debug().Err(err).Msg("Reply write failed")
				conn.Close()
				return
			}
		}
	}
}

// dispatch runs one client action. Accepted actions are answered by the
// state broadcast, so only rejections, errors and pongs produce a reply.
func (h *WSHandler) dispatch(ctx context.Context, log zerolog.Logger, sessionID, playerID uuid.UUID, req *ws.Request) any {
	var (
		result service.ActionResult
		err    error
	)

	switch req.Action {
	case ws.ActionPing:
		return ws.PongResponse{Event: ws.EventPong}
	case ws.ActionAnswer:
		result, err = h.playService.Answer(ctx, sessionID, playerID, req.OptionID)
	case ws.ActionJournal:
		result, err = h.playService.Journal(ctx, sessionID, playerID, req.Text)
	case ws.ActionToggle:
		result, err = h.playService.Toggle(ctx, sessionID, playerID, req.OptionID)
	case ws.ActionSubmit:
		result, err = h.playService.SubmitSelection(ctx, sessionID, playerID)
	case ws.ActionNext:
		result, err = h.playService.Next(ctx, sessionID, playerID)
	case ws.ActionFlip:
		if req.Index == nil {
			return wsError{code: response.ErrInvalidPayload, msg: "index is required"}
		}
		result, err = h.playService.Flip(ctx, sessionID, playerID, *req.Index)
	default:
		log.Warn().Str("action", string(req.Action)).Msg("Unknown action")
		return wsError{code: response.ErrActionNotAllowed, msg: "unknown action: " + string(req.Action)}
	}

	if err != nil {
		_, code := errorStatus(err)
		return wsError{code: code, msg: err.Error()}
	}
	if !result.Accepted {
		return ws.RejectedResponse{Event: ws.EventRejected, Action: req.Action}
	}
	return nil
}
