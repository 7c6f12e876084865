package api

import (
	"net/http"

	"maitred/internal/catalog"
	"maitred/internal/feedback"
	"maitred/internal/kitchen"
	"maitred/internal/monitoring"
	"maitred/internal/orchestrator"

	"github.com/gin-gonic/gin"
)

// Server exposes the chat pipeline, kitchen tracker and feedback analytics over HTTP
type Server struct {
	Router       *gin.Engine
	Orchestrator *orchestrator.Orchestrator
	Kitchen      *kitchen.Tracker
	Feedback     *feedback.Service
	Catalog      *catalog.Catalog
	Monitor      *monitoring.Monitor

	// ChunkSize is the word count per streamed chunk. Zero uses the orchestrator default.
	ChunkSize int
}

// Deps groups the collaborators a Server routes to
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Kitchen      *kitchen.Tracker
	Feedback     *feedback.Service
	Catalog      *catalog.Catalog
	Monitor      *monitoring.Monitor
	ChunkSize    int
}

// NewServer creates a new API server with all routes registered
func NewServer(deps Deps) *Server {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	s := &Server{
		Router:       router,
		Orchestrator: deps.Orchestrator,
		Kitchen:      deps.Kitchen,
		Feedback:     deps.Feedback,
		Catalog:      deps.Catalog,
		Monitor:      deps.Monitor,
		ChunkSize:    deps.ChunkSize,
	}
	if s.Monitor == nil {
		s.Monitor = monitoring.NewMonitor()
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "maitred is running"})
	})

	v1 := s.Router.Group("/api/v1")
	{
		chat := v1.Group("/chat")
		chat.POST("", s.Chat)
		chat.POST("/stream", s.ChatStream)
		chat.GET("/ws", s.ChatWebSocket)
		chat.GET("/history/:conversation_id", s.GetHistory)
		chat.DELETE("/history/:conversation_id", s.DeleteHistory)

		meals := v1.Group("/meals")
		meals.GET("", s.ListMeals)
		meals.GET("/popular", s.PopularMeals)
		meals.POST("/search", s.SearchMeals)
		meals.POST("/plan", s.PlanMeals)
		meals.GET("/:id", s.GetMeal)

		k := v1.Group("/kitchen")
		k.POST("/requests", s.CreateKitchenRequest)
		k.GET("/requests", s.ListKitchenRequests)
		k.GET("/requests/:id", s.GetKitchenRequest)
		k.DELETE("/requests/:id", s.DeleteKitchenRequest)
		k.PATCH("/requests/:id/status", s.UpdateKitchenStatus)
		k.GET("/dashboard", s.KitchenDashboard)

		analytics := v1.Group("/analytics")
		analytics.POST("/feedback", s.SubmitFeedback)
		analytics.GET("/feedback", s.ListFeedback)
		analytics.GET("/feedback/:id", s.GetFeedback)
		analytics.GET("/summary", s.FeedbackSummary)
		analytics.GET("/trends", s.FeedbackTrends)

		v1.GET("/stats", s.Stats)
	}
}

// Stats returns the runtime counters kept by the monitor
func (s *Server) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.Monitor.GetMetrics())
}
