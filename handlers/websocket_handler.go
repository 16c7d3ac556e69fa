package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/spormatch/realtime"
	"github.com/Dosada05/spormatch/services"
)

type WebSocketHandler struct {
	hub                 *realtime.Hub
	conversationService services.ConversationService
	upgrader            websocket.Upgrader
}

// NewWebSocketHandler принимает список разрешённых Origin; "*" разрешает любые.
func NewWebSocketHandler(hub *realtime.Hub, cs services.ConversationService, allowedOrigins []string) *WebSocketHandler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return &WebSocketHandler{
		hub:                 hub,
		conversationService: cs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Mobile clients send no Origin header.
				return allowAll || origin == "" || allowed[origin]
			},
		},
	}
}

// ServeWs godoc
// @Summary Realtime messages of a conversation
// @Description Upgrades to a websocket that receives MESSAGE_CREATED frames. The token may be passed as ?token=.
// @Tags messages
// @Param conversationID path int true "Conversation ID"
// @Param token query string false "JWT when headers cannot be set"
// @Success 101
// @Failure 403 {object} map[string]string
// @Router /ws/conversations/{conversationID} [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	conversationID, err := getIDFromURL(r, "conversationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.conversationService.EnsureParticipant(r.Context(), conversationID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		slog.WarnContext(r.Context(), "Websocket upgrade failed",
			slog.Int("conversation_id", conversationID),
			slog.Any("error", err),
		)
		return
	}

	client := realtime.NewClient(h.hub, conn, realtime.ConversationRoom(conversationID), userID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
