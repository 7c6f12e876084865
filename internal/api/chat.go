package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"maitred/internal/orchestrator"

	"github.com/gin-gonic/gin"
)

// ChatRequest is the body of the chat endpoints and of each websocket frame
type ChatRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
}

// Chat handles one message and returns the whole reply
func (s *Server) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reply, err := s.Orchestrator.HandleMessage(c.Request.Context(), req.UserID, req.Message, req.ConversationID)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// ChatStream handles one message and streams the reply as server-sent events.
// The conversation id and agent travel in response headers since the body
// carries only reply text.
func (s *Server) ChatStream(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	events, err := s.Orchestrator.Stream(c.Request.Context(), req.UserID, req.Message, req.ConversationID, s.ChunkSize)
	if err != nil {
		abort(c, err)
		return
	}

	start, ok := <-events
	if !ok {
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Conversation-ID", start.ConversationID)
	c.Header("X-Agent", string(start.Agent))
	c.Status(http.StatusOK)

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		switch ev.Type {
		case orchestrator.EventChunk:
			writeEvent(w, ev.Content)
			return true
		case orchestrator.EventDone:
			writeEvent(w, orchestrator.DoneSentinel)
			return false
		}
		return true
	})
}

// writeEvent frames content as one SSE event, one data line per line of text.
func writeEvent(w io.Writer, content string) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

// GetHistory returns a stored conversation
func (s *Server) GetHistory(c *gin.Context) {
	conv, err := s.Orchestrator.Conversation(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// DeleteHistory forgets a conversation
func (s *Server) DeleteHistory(c *gin.Context) {
	id := c.Param("conversation_id")
	if err := s.Orchestrator.Forget(c.Request.Context(), id); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "conversation deleted", "conversation_id": id})
}
