package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"maitred/internal/agents"
	"maitred/internal/catalog"
	"maitred/internal/conversation"
	"maitred/internal/feedback"
	"maitred/internal/kitchen"
	"maitred/internal/llm/llmtest"
	"maitred/internal/monitoring"
	"maitred/internal/orchestrator"
	"maitred/internal/retrieval"
	"maitred/internal/retry"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const generalReply = "one two three four five six seven"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *llmtest.MockProvider) {
	t.Helper()
	policy := retry.Policy{MaxRetries: 1, Delay: time.Millisecond}

	cat, err := catalog.New(catalog.SampleMeals())
	require.NoError(t, err)
	embedder := retrieval.NewHashEmbedder(4096)
	index := retrieval.NewMemoryIndex()
	require.NoError(t, retrieval.IndexCatalog(context.Background(), embedder, index, cat))

	provider := new(llmtest.MockProvider)
	analyzer := agents.NewAnalyzer(nil, policy)
	tracker := kitchen.NewTracker(kitchen.NewMemoryRepository())
	monitor := monitoring.NewMonitor()

	orch := orchestrator.New(orchestrator.Deps{
		Retriever: retrieval.NewEngine(embedder, index, cat, policy),
		Agents: agents.NewRegistry(
			agents.NewRecommendationAgent(provider, policy),
			agents.NewFeedbackAgent(analyzer),
			agents.NewKitchenAgent(),
			agents.NewGeneralAgent(provider, policy),
		),
		Store:     conversation.NewStore(conversation.NewMemoryRepository(), conversation.TrimPolicy{MaxMessages: 50}),
		Escalator: tracker,
		Monitor:   monitor,
		Retry:     &policy,
	}, orchestrator.Options{})

	s := NewServer(Deps{
		Orchestrator: orch,
		Kitchen:      tracker,
		Feedback:     feedback.NewService(feedback.NewMemoryRepository(), analyzer, tracker, cat),
		Catalog:      cat,
		Monitor:      monitor,
		ChunkSize:    3,
	})
	return s, provider
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestChat_HistoryRoundTrip(t *testing.T) {
	s, provider := newTestServer(t)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("Hi! How can I help?", nil)

	w := do(t, s, http.MethodPost, "/api/v1/chat", ChatRequest{UserID: "u1", Message: "hello there"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Hi! How can I help?", body["reply"])
	assert.Equal(t, "general", body["agent_used"])
	id, _ := body["conversation_id"].(string)
	require.NotEmpty(t, id)

	w = do(t, s, http.MethodGet, "/api/v1/chat/history/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	msgs, _ := decode(t, w)["messages"].([]interface{})
	assert.Len(t, msgs, 2)

	w = do(t, s, http.MethodDelete, "/api/v1/chat/history/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/chat/history/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode(t, w)["error"], "not found")
}

func TestChat_Validation(t *testing.T) {
	s, provider := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/chat", ChatRequest{UserID: "u1", Message: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/chat", ChatRequest{UserID: "u1", Message: strings.Repeat("a", 2001)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChat_AllergyCreatesKitchenRequest(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/chat", ChatRequest{UserID: "u1", Message: "I'm allergic to peanuts, can you recommend a meal?"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "kitchen", body["agent_used"])
	assert.Equal(t, true, body["requires_kitchen_action"])

	id, _ := body["kitchen_request_id"].(string)
	w = do(t, s, http.MethodGet, "/api/v1/kitchen/requests/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	kr := decode(t, w)
	assert.Equal(t, float64(5), kr["priority"])
	assert.Equal(t, "allergy", kr["request_type"])
}

func TestChatStream_SSE(t *testing.T) {
	s, provider := newTestServer(t)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(generalReply, nil)
	srv := httptest.NewServer(s.Router)
	defer srv.Close()

	payload, _ := json.Marshal(ChatRequest{UserID: "u1", Message: "hello there"})
	resp, err := http.Post(srv.URL+"/api/v1/chat/stream", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Conversation-ID"))
	assert.Equal(t, "general", resp.Header.Get("X-Agent"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "data: one two three\n\ndata: four five six\n\ndata: seven\n\ndata: [DONE]\n\n", string(raw))
}

func TestChatStream_MultilineChunks(t *testing.T) {
	s, provider := newTestServer(t)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("Options:\n1. soup\n2. salad", nil)
	srv := httptest.NewServer(s.Router)
	defer srv.Close()

	payload, _ := json.Marshal(ChatRequest{UserID: "u1", Message: "hello there"})
	resp, err := http.Post(srv.URL+"/api/v1/chat/stream", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "data: Options:\ndata: 1. soup\ndata: 2. salad\n\ndata: [DONE]\n\n", string(raw))
}

func TestChatStream_ValidationIsPlainError(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodPost, "/api/v1/chat/stream", ChatRequest{Message: "hello"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "user_id")
}

func TestChatWebSocket(t *testing.T) {
	s, provider := newTestServer(t)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(generalReply, nil)
	srv := httptest.NewServer(s.Router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteJSON(ChatRequest{UserID: "u1", Message: "hello there"}))

	var chunks []string
	var convID string
	for {
		var f wsFrame
		require.NoError(t, conn.ReadJSON(&f))
		switch f.Type {
		case orchestrator.EventStart:
			convID = f.ConversationID
		case orchestrator.EventChunk:
			chunks = append(chunks, f.Content)
		}
		if f.Type == orchestrator.EventDone {
			require.NotNil(t, f.Reply)
			assert.Equal(t, convID, f.Reply.ConversationID)
			break
		}
	}
	assert.NotEmpty(t, convID)
	assert.Equal(t, generalReply, strings.Join(chunks, " "))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var f wsFrame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, orchestrator.EventType("error"), f.Type)
	assert.Contains(t, f.Error, "invalid message")

	require.NoError(t, conn.WriteJSON(ChatRequest{UserID: "u1"}))
	require.NoError(t, conn.ReadJSON(&f))
	assert.Contains(t, f.Error, "message is required")
}

func TestMeals(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("filter by tag", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/v1/meals?dietary_tags=vegan", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(3), decode(t, w)["count"])
	})

	t.Run("bad category", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/v1/meals?category=brunch", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/v1/meals/meal_vegan_wrap", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "meal_vegan_wrap", decode(t, w)["id"])

		w = do(t, s, http.MethodGet, "/api/v1/meals/meal_unknown", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("popular", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/v1/meals/popular?limit=2", nil)
		require.Equal(t, http.StatusOK, w.Code)
		meals := decode(t, w)["meals"].([]interface{})
		require.Len(t, meals, 2)
		assert.Equal(t, "meal_grilled_chicken", meals[0].(map[string]interface{})["id"])
		assert.Equal(t, "meal_salmon_bowl", meals[1].(map[string]interface{})["id"])
	})

	t.Run("search ranks by fit", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/v1/meals/search", SearchRequest{Query: "high protein vegan", Limit: 1})
		require.Equal(t, http.StatusOK, w.Code)
		meals := decode(t, w)["meals"].([]interface{})
		require.Len(t, meals, 1)
		assert.Equal(t, "meal_protein_bowl", meals[0].(map[string]interface{})["id"])
	})

	t.Run("plan", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/v1/meals/plan", PlanRequest{Days: 2, MealsPerDay: 3})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["plan"], 2)

		w = do(t, s, http.MethodPost, "/api/v1/meals/plan", PlanRequest{Days: 40})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestKitchenRequests(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/kitchen/requests", map[string]interface{}{
		"user_id": "u1", "message": "no onions please", "request_type": "modification", "priority": 3,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)

	w = do(t, s, http.MethodPost, "/api/v1/kitchen/requests", map[string]interface{}{
		"user_id": "u1", "message": "x", "request_type": "party", "priority": 3,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPatch, "/api/v1/kitchen/requests/"+id+"/status", StatusUpdate{Status: "completed"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPatch, "/api/v1/kitchen/requests/"+id+"/status", StatusUpdate{Status: "in_progress", Notes: "on it"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "in_progress", decode(t, w)["status"])

	w = do(t, s, http.MethodGet, "/api/v1/kitchen/requests?status=in_progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = do(t, s, http.MethodGet, "/api/v1/kitchen/requests?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/kitchen/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	w = do(t, s, http.MethodDelete, "/api/v1/kitchen/requests/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, s, http.MethodGet, "/api/v1/kitchen/requests/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedbackAnalytics(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/analytics/feedback", feedback.SubmitParams{
		UserID: "u1", MealID: "meal_grilled_chicken", Rating: 5, Comment: "Loved it, delicious",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode(t, w)
	assert.Equal(t, "positive", rec["sentiment"])

	w = do(t, s, http.MethodGet, "/api/v1/analytics/feedback/"+rec["id"].(string), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/analytics/feedback", feedback.SubmitParams{
		UserID: "u2", MealID: "meal_vegan_wrap", Rating: 1, Comment: "Arrived cold and late, terrible",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, decode(t, w)["requires_attention"])

	w = do(t, s, http.MethodGet, "/api/v1/kitchen/requests?request_type=complaint", nil)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = do(t, s, http.MethodPost, "/api/v1/analytics/feedback", feedback.SubmitParams{
		UserID: "u1", MealID: "meal_unknown", Rating: 4,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/analytics/feedback", feedback.SubmitParams{UserID: "u1", Rating: 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/analytics/feedback?sentiment=positive", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = do(t, s, http.MethodGet, "/api/v1/analytics/summary?days=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["total_feedback"])

	w = do(t, s, http.MethodGet, "/api/v1/analytics/summary?days=400", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/analytics/trends?days=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])
}

func TestStats(t *testing.T) {
	s, provider := newTestServer(t)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("hi", nil)

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/v1/chat", ChatRequest{UserID: "u1", Message: "hello there"}).Code)

	w := do(t, s, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.Equal(t, float64(1), stats["messages_total"])
	assert.Contains(t, stats, "uptime_seconds")
}
