package api

import (
	"net/http"
	"strconv"

	"maitred/internal/kitchen"
	"maitred/internal/models"

	"github.com/gin-gonic/gin"
)

// StatusUpdate is the body of a kitchen request status change
type StatusUpdate struct {
	Status models.RequestStatus `json:"status"`
	Notes  string               `json:"notes"`
}

// Kitchen request handlers

func (s *Server) CreateKitchenRequest(c *gin.Context) {
	var in kitchen.NewRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	req, err := s.Kitchen.Create(c.Request.Context(), in)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (s *Server) ListKitchenRequests(c *gin.Context) {
	f := kitchen.Filter{
		Status: models.RequestStatus(c.Query("status")),
		Type:   models.RequestType(c.Query("request_type")),
		UserID: c.Query("user_id"),
	}
	if f.Status != "" && !f.Status.Valid() {
		abort(c, models.Validationf("unknown status %q", f.Status))
		return
	}
	if f.Type != "" && !f.Type.Valid() {
		abort(c, models.Validationf("unknown request type %q", f.Type))
		return
	}
	if v := c.Query("priority_min"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			abort(c, models.Validationf("priority_min must be an integer"))
			return
		}
		f.PriorityMin = n
	}

	reqs, err := s.Kitchen.List(c.Request.Context(), f)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs, "count": len(reqs)})
}

func (s *Server) GetKitchenRequest(c *gin.Context) {
	req, err := s.Kitchen.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (s *Server) UpdateKitchenStatus(c *gin.Context) {
	var body StatusUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	req, err := s.Kitchen.Transition(c.Request.Context(), c.Param("id"), body.Status, body.Notes)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (s *Server) DeleteKitchenRequest(c *gin.Context) {
	id := c.Param("id")
	if err := s.Kitchen.Delete(c.Request.Context(), id); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "kitchen request deleted", "id": id})
}

func (s *Server) KitchenDashboard(c *gin.Context) {
	dash, err := s.Kitchen.Dashboard(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}
