package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"maitred/internal/logger"
	"maitred/internal/orchestrator"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxFrameSize   = 64 * 1024
	inboundBacklog = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsFrame is one outbound websocket message
type wsFrame struct {
	orchestrator.StreamEvent
	Error string `json:"error,omitempty"`
}

// wsInbound is a parsed client frame, or the reason it could not be parsed
type wsInbound struct {
	req ChatRequest
	err error
}

// wsSession maintains one websocket connection. Inbound messages are handled
// one at a time so a conversation's turns stay ordered.
type wsSession struct {
	conn      *websocket.Conn
	send      chan []byte
	inbound   chan wsInbound
	ctx       context.Context
	cancel    context.CancelFunc
	server    *Server
	chunkSize int
}

// ChatWebSocket upgrades the connection and streams a reply for each inbound message
func (s *Server) ChatWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("api: websocket upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ws := &wsSession{
		conn:      conn,
		send:      make(chan []byte, 256),
		inbound:   make(chan wsInbound, inboundBacklog),
		ctx:       ctx,
		cancel:    cancel,
		server:    s,
		chunkSize: s.ChunkSize,
	}

	go ws.writePump()
	go ws.dispatch()
	ws.readPump()
}

// readPump pumps frames from the connection into the dispatch queue
func (ws *wsSession) readPump() {
	defer func() {
		ws.cancel()
		close(ws.inbound)
		ws.conn.Close()
	}()

	ws.conn.SetReadLimit(maxFrameSize)
	ws.conn.SetReadDeadline(time.Now().Add(pongWait))
	ws.conn.SetPongHandler(func(string) error {
		ws.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := ws.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("api: websocket read: %v", err)
			}
			return
		}

		var in wsInbound
		in.err = json.Unmarshal(message, &in.req)
		select {
		case ws.inbound <- in:
		case <-ws.ctx.Done():
			return
		}
	}
}

// dispatch handles queued messages in arrival order. It is the only writer
// to send and closes it when the queue drains.
func (ws *wsSession) dispatch() {
	defer close(ws.send)

	for in := range ws.inbound {
		if in.err != nil {
			ws.sendError("invalid message: " + in.err.Error())
			continue
		}
		ws.handleMessage(in.req)
	}
}

// handleMessage streams the reply to one chat request
func (ws *wsSession) handleMessage(req ChatRequest) {
	events, err := ws.server.Orchestrator.Stream(ws.ctx, req.UserID, req.Message, req.ConversationID, ws.chunkSize)
	if err != nil {
		ws.sendError(err.Error())
		return
	}
	for ev := range events {
		if !ws.sendFrame(wsFrame{StreamEvent: ev}) {
			return
		}
	}
}

func (ws *wsSession) sendError(message string) {
	ws.sendFrame(wsFrame{StreamEvent: orchestrator.StreamEvent{Type: "error"}, Error: message})
}

func (ws *wsSession) sendFrame(f wsFrame) bool {
	data, err := json.Marshal(f)
	if err != nil {
		logger.Error("api: marshal websocket frame: %v", err)
		return false
	}
	select {
	case ws.send <- data:
		return true
	case <-ws.ctx.Done():
		return false
	}
}

// writePump pumps frames from the session to the connection
func (ws *wsSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.cancel()
		ws.conn.Close()
	}()

	for {
		select {
		case message, ok := <-ws.send:
			ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := ws.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
