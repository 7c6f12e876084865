package api

import (
	"net/http"
	"strconv"

	"maitred/internal/feedback"
	"maitred/internal/models"

	"github.com/gin-gonic/gin"
)

func queryInt(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, models.Validationf("%s must be an integer", key)
	}
	return n, nil
}

// Feedback handlers

func (s *Server) SubmitFeedback(c *gin.Context) {
	var p feedback.SubmitParams
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}

	rec, err := s.Feedback.Submit(c.Request.Context(), p)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) ListFeedback(c *gin.Context) {
	f := feedback.Filter{
		Sentiment: models.Sentiment(c.Query("sentiment")),
		Category:  models.FeedbackCategory(c.Query("category")),
		MealID:    c.Query("meal_id"),
		UserID:    c.Query("user_id"),
	}
	var err error
	if f.MinRating, err = queryInt(c, "min_rating"); err != nil {
		abort(c, err)
		return
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		abort(c, err)
		return
	}

	recs, err := s.Feedback.List(c.Request.Context(), f)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": recs, "count": len(recs)})
}

func (s *Server) GetFeedback(c *gin.Context) {
	rec, err := s.Feedback.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) FeedbackSummary(c *gin.Context) {
	days, err := queryInt(c, "days")
	if err != nil {
		abort(c, err)
		return
	}

	summary, err := s.Feedback.Summary(c.Request.Context(), days, c.Query("meal_id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) FeedbackTrends(c *gin.Context) {
	days, err := queryInt(c, "days")
	if err != nil {
		abort(c, err)
		return
	}

	trends, err := s.Feedback.Trends(c.Request.Context(), days)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trends": trends, "count": len(trends)})
}
