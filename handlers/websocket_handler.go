package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/tns-project/tns-server/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the dashboard origin once it has a fixed host
		return true
	},
}

type WebSocketHandler struct {
	hub *ws.Hub
}

func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeWs subscribes the caller to one event stream. Clients connect to
// /ws/{stream}, where stream is "roster" or "matches".
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	stream := chi.URLParam(r, "stream")
	switch stream {
	case ws.StreamRoster, ws.StreamMatches:
	default:
		http.Error(w, "Unknown stream", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade websocket connection", "stream", stream, "error", err)
		return
	}

	client := &ws.Client{
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Stream: stream,
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
