package event

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"scibind/internal/errors"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /events, optionally filtered by ?division=
func (h *Handler) List(c *gin.Context) {
	events, err := h.service.List(c.Request.Context(), c.Query("division"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": events})
}

func (h *Handler) Show(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid event id", err))
		return
	}

	e, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, e)
}
