package api

import (
	"coachdesk/internal/live"
	"coachdesk/internal/service"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, restrict to configured origins.
		return true
	},
}

// WSHandler upgrades dashboard connections and streams hub events. Each
// socket watches exactly one topic; the browser opens one socket per live
// list it renders, mirroring the per-collection listeners it replaces.
type WSHandler struct {
	hub         *live.Hub
	chatService service.ChatService
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *live.Hub, chatService service.ChatService) *WSHandler {
	return &WSHandler{hub: hub, chatService: chatService}
}

// WatchUser godoc
// @Summary Stream change events for the caller's own lists
// @Description WebSocket endpoint. Events carry kind (chats, roster, inbox, goals, reminders) and entity id; clients refetch the affected list.
// @Tags Live
// @Router /ws [get]
func (h *WSHandler) WatchUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	h.serve(c, live.TopicUser(userID.Hex()))
}

// WatchChat godoc
// @Summary Stream message events for one chat
// @Description WebSocket endpoint; the caller must be a participant.
// @Tags Live
// @Param chatId path string true "Chat ID"
// @Router /ws/chats/{chatId} [get]
func (h *WSHandler) WatchChat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	chatID := c.Param("chatId")

	// Membership check before the upgrade; non-participants get plain HTTP errors.
	if _, err := h.chatService.GetChat(c.Request.Context(), userID, chatID); err != nil {
		switch {
		case errors.Is(err, service.ErrChatNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotParticipant):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to open chat stream")
		}
		return
	}
	h.serve(c, live.TopicChat(chatID))
}

func (h *WSHandler) serve(c *gin.Context, topic string) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return // Upgrade already wrote the error response
	}

	events, cancel := h.hub.Subscribe(topic)
	go writePump(conn, events, cancel)
	go readPump(conn, cancel)
}

// readPump discards inbound frames; its job is resetting the read deadline on
// pongs and tearing the subscription down when the peer goes away.
func readPump(conn *websocket.Conn, cancel func()) {
	defer func() {
		cancel()
		_ = conn.Close()
	}()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, events <-chan live.Event, cancel func()) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		_ = conn.Close()
	}()
	for {
		select {
		case ev, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Printf("ERROR: Failed to encode live event: %v", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
