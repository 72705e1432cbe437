package binder

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scibind/internal/errors"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	binders, err := h.service.List(c.Request.Context(), c.GetUint64("user_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": binders})
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	binder, err := h.service.Create(c.Request.Context(), c.GetUint64("user_id"), req.EventID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, binder)
}
