package orchestrator

import (
	"context"
	"strings"
	"time"

	"maitred/internal/intent"
)

const (
	DefaultChunkSize = 5
	DoneSentinel     = "[DONE]"
)

// EventType tags a stream event
type EventType string

const (
	EventStart EventType = "start"
	EventChunk EventType = "chunk"
	EventDone  EventType = "done"
)

// StreamEvent is one frame of a streamed reply.
type StreamEvent struct {
	Type           EventType    `json:"type"`
	ConversationID string       `json:"conversation_id,omitempty"`
	Agent          intent.Label `json:"agent,omitempty"`
	Content        string       `json:"content,omitempty"`
	Reply          *Reply       `json:"reply,omitempty"`
}

// Stream handles the message, then emits start, the reply in chunks of
// chunkSize words (see ChunkWords), and done. The turn is committed before the first event;
// cancelling ctx only stops delivery.
func (o *Orchestrator) Stream(ctx context.Context, userID, message, conversationID string, chunkSize int) (<-chan StreamEvent, error) {
	reply, err := o.HandleMessage(ctx, userID, message, conversationID)
	if err != nil {
		return nil, err
	}
	if chunkSize <= 0 {
		chunkSize = o.opts.ChunkSize
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)

		send := func(ev StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(StreamEvent{Type: EventStart, ConversationID: reply.ConversationID, Agent: reply.AgentUsed}) {
			return
		}
		for _, chunk := range ChunkWords(reply.Reply, chunkSize) {
			if !send(StreamEvent{Type: EventChunk, Content: chunk}) {
				return
			}
			if o.opts.ChunkDelay > 0 {
				select {
				case <-time.After(o.opts.ChunkDelay):
				case <-ctx.Done():
					return
				}
			}
		}
		send(StreamEvent{Type: EventDone, Content: DoneSentinel, Reply: reply})
	}()
	return events, nil
}

// ChunkWords splits text on spaces into groups of size words. Line breaks
// stay inside the words they touch, so joining the chunks with single spaces
// gives back text with runs of spaces collapsed.
func ChunkWords(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var words []string
	for _, tok := range strings.Split(text, " ") {
		switch {
		case strings.TrimSpace(tok) == "":
			// a bare line break belongs to the word before it
			if tok != "" && len(words) > 0 {
				words[len(words)-1] += " " + tok
			}
		default:
			words = append(words, tok)
		}
	}
	chunks := make([]string, 0, (len(words)+size-1)/size)
	for i := 0; i < len(words); i += size {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}
