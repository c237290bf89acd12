package handlers

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/CLDWare/evaluations-backend/config"
	"github.com/CLDWare/evaluations-backend/internal/evaluation"
	"github.com/CLDWare/evaluations-backend/internal/live"
	"github.com/CLDWare/evaluations-backend/pkg/logger"
	"github.com/CLDWare/evaluations-backend/pkg/response"
)

const (
	WEBSOCKET_WRITE_WAIT  = 10 * time.Second
	WEBSOCKET_PONG_WAIT   = 60 * time.Second
	WEBSOCKET_PING_PERIOD = (WEBSOCKET_PONG_WAIT * 9) / 10
	WEBSOCKET_READ_LIMIT  = 512
)

// WebsocketHandler streams live response progress to the admin panel
type WebsocketHandler struct {
	config   *config.Config
	service  *evaluation.Service
	hub      *live.Hub
	upgrader websocket.Upgrader
}

func NewWebsocketHandler(cfg *config.Config, service *evaluation.Service, hub *live.Hub) *WebsocketHandler {
	h := &WebsocketHandler{
		config:  cfg,
		service: service,
		hub:     hub,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *WebsocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	var allowed []string
	for _, item := range strings.Split(h.config.CORS.AllowedOrigins, ",") {
		allowed = append(allowed, strings.TrimRight(strings.TrimSpace(item), "/"))
	}
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

// GetSurveyLive
//
// @Summary		Live progress of a survey
// @Description	Upgrade to a websocket that receives a response_progress message after every recorded response
// @Tags			admin survey requiresAuth
// @Param			id	path		int	true	"Survey id"
// @Success		101	{string}	string	"Switching Protocols"
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Failure		404	{object}	apiResponses.NotFoundError
// @Router			/api/admin/surveys/{id}/live [get]
func (h *WebsocketHandler) GetSurveyLive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.service.SurveyByID(r.Context(), id); err != nil {
		response.Error(w, err)
		return
	}
	h.serve(w, r, id)
}

// GetLive
//
// @Summary		Live progress of every survey
// @Tags			admin survey requiresAuth
// @Success		101	{string}	string	"Switching Protocols"
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Router			/api/admin/live [get]
func (h *WebsocketHandler) GetLive(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, 0)
}

func (h *WebsocketHandler) serve(w http.ResponseWriter, r *http.Request, surveyID uint) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Err(err)
		return
	}

	client := live.NewClient(surveyID)
	h.hub.Register(client)
	logger.Info(fmt.Sprintf("Live: %s subscribed to survey %d", r.RemoteAddr, surveyID))

	go h.writePump(ws, client)
	go h.readPump(ws, client)
}

// readPump only keeps the read deadline fresh; subscribers never send anything meaningful
func (h *WebsocketHandler) readPump(ws *websocket.Conn, client *live.Client) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
	}()

	ws.SetReadLimit(WEBSOCKET_READ_LIMIT)
	ws.SetReadDeadline(time.Now().Add(WEBSOCKET_PONG_WAIT))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(WEBSOCKET_PONG_WAIT))
		return nil
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Err("read:", err)
			}
			return
		}
	}
}

func (h *WebsocketHandler) writePump(ws *websocket.Conn, client *live.Client) {
	ticker := time.NewTicker(WEBSOCKET_PING_PERIOD)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			ws.SetWriteDeadline(time.Now().Add(WEBSOCKET_WRITE_WAIT))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Err("write:", err)
				return
			}

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(WEBSOCKET_WRITE_WAIT))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
