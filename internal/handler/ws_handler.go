package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/certifypro-backend/internal/examsession"
	"github.com/stemsi/certifypro-backend/internal/middleware"
	"github.com/stemsi/certifypro-backend/internal/response"
	"github.com/stemsi/certifypro-backend/internal/service"
	"github.com/stemsi/certifypro-backend/internal/validator"
	ws "github.com/stemsi/certifypro-backend/internal/websocket"
)

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

// WSHandler streams a live exam session over WebSocket: the countdown and
// the graded result flow out, answers and navigation flow in.
type WSHandler struct {
	authService    *service.AuthService
	sessionService *service.ExamSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(authService *service.AuthService, sessionService *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		authService:    authService,
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// ExamWebSocketStream godoc
// WS /ws/v1/student/exams/:exam_id/stream?token=...
// The session must already be open. Auth is checked before the upgrade.
func (h *WSHandler) ExamWebSocketStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.ValidateSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
		failFromError(c, h.log, err)
		return
	}

	examID := c.Param("exam_id")
	events, unsubscribe, err := h.sessionService.Subscribe(claims.UserID, examID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	defer unsubscribe()

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().
		Str("user_id", claims.UserID.String()).
		Str("exam_id", examID).
		Logger()
	wsLog.Info().Msg("Student connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.pumpEvents(ctx, conn, events, wsLog)

	if state, err := h.sessionService.State(claims.UserID, examID); err == nil {
		_ = conn.WriteTyped(ws.StateResponse{Event: ws.EventState, State: state})
	}

	// A closed stream leaves the session running; its timer still submits at zero.
	for {
		var req ws.Request
		if err := conn.ReadRequest(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		h.handleAction(ctx, conn, &req, claims, examID, wsLog)
	}
}

// pumpEvents forwards session events until the stream closes or ctx ends.
func (h *WSHandler) pumpEvents(ctx context.Context, conn *ws.Conn, events <-chan examsession.Event, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			var err error
			switch ev.Type {
			case examsession.EventTick:
				err = conn.WriteTyped(ws.TickResponse{
					Event:            ws.EventTick,
					RemainingSeconds: ev.RemainingSeconds,
					RemainingDisplay: examsession.FormatRemaining(ev.RemainingSeconds),
				})
			case examsession.EventSubmitted:
				err = conn.WriteTyped(ws.SubmittedResponse{Event: ws.EventSubmitted, Result: ev.Result})
			case examsession.EventAbandoned:
				err = conn.WriteTyped(ws.NoticeResponse{Event: ws.EventAbandoned})
			}
			if err != nil {
				log.Debug().Err(err).Msg("Event write failed")
				return
			}
		}
	}
}

func (h *WSHandler) handleAction(ctx context.Context, conn *ws.Conn, req *ws.Request, claims *service.Claims, examID string, log zerolog.Logger) {
	if fields := validator.Struct(req); fields != nil {
		_ = conn.WriteError(string(response.ErrValidation), response.GetMessage(response.ErrValidation), fields)
		return
	}

	var (
		state interface{}
		err   error
	)

	switch req.Action {
	case ws.ActionPing:
		_ = conn.WriteTyped(ws.NoticeResponse{Event: ws.EventPong})
		return

	case ws.ActionState:
		state, err = h.sessionService.State(claims.UserID, examID)

	case ws.ActionAnswer:
		if req.QuestionID == "" || req.OptionIndex == nil {
			_ = conn.WriteError(string(response.ErrValidation), response.GetMessage(response.ErrValidation),
				map[string]string{"question_id": "question_id and option_index are required"})
			return
		}
		state, err = h.sessionService.Answer(claims.UserID, examID, req.QuestionID, *req.OptionIndex)

	case ws.ActionNavigate:
		if req.Index == nil {
			_ = conn.WriteError(string(response.ErrValidation), response.GetMessage(response.ErrValidation),
				map[string]string{"index": "index is required"})
			return
		}
		state, err = h.sessionService.Navigate(claims.UserID, examID, *req.Index)

	case ws.ActionSubmit:
		// The submitted event reaches this client through the event pump.
		_, err = h.sessionService.Submit(ctx, claims.UserID, examID)
		if err == nil {
			return
		}

	default:
		_ = conn.WriteError(string(response.ErrUnknownAction), response.GetMessage(response.ErrUnknownAction), nil)
		return
	}

	if err != nil {
		status, code := classify(err)
		if status >= http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("action", string(req.Action)).Msg("WebSocket action failed")
		}
		_ = conn.WriteError(string(code), response.GetMessage(code), nil)
		return
	}

	_ = conn.WriteTyped(ws.StateResponse{Event: ws.EventState, State: state})
}
