package document

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"scibind/internal/docmodel"
	"scibind/internal/errors"
	"scibind/internal/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the document API on an authenticated group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	docs := r.Group("/documents")
	docs.POST("", h.Create)
	docs.GET("", h.ShowUserDocuments)
	docs.GET("/search", h.SearchAll)
	docs.GET("/:id", h.ShowDocument)
	docs.PATCH("/:id", h.Rename)
	docs.DELETE("/:id", h.Delete)

	docs.POST("/:id/sections", h.AddSection)
	docs.DELETE("/:id/sections/:section", h.RemoveSection)

	elements := docs.Group("/:id/sections/:section/elements")
	elements.POST("", h.AddElement)
	elements.PUT("/:index", h.ReplaceElement)
	elements.DELETE("/:index", h.RemoveElement)
	elements.PATCH("/:index/styling", h.ModifyStyling)
	elements.PUT("/:index/cells", h.SetCell)

	docs.POST("/:id/comments", h.AddComment)
	docs.POST("/:id/collaborators", h.AddCollaborator)
	docs.DELETE("/:id/collaborators/:user", h.RemoveCollaborator)
	docs.POST("/:id/tags", h.AddTag)
	docs.DELETE("/:id/tags/:tag", h.RemoveTag)
	docs.GET("/:id/search", h.SearchDocument)
	docs.POST("/:id/versions", h.SaveVersion)
	docs.GET("/:id/versions", h.CountVersions)
	docs.POST("/:id/versions/:index/revert", h.Revert)
	docs.GET("/:id/export/:format", h.Export)
	docs.GET("/:id/columns", h.Columns)
}

func currentUser(c *gin.Context) uint64 {
	userID, _ := c.Get("user_id")
	id, _ := userID.(uint64)
	return id
}

func indexParam(c *gin.Context, name string) (int, error) {
	index, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, errors.BadRequest(fmt.Sprintf("Invalid %s", name), err)
	}
	return index, nil
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateOrRenameRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	doc, err := h.service.Create(c.Request.Context(), currentUser(c), form.Title)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) ShowUserDocuments(c *gin.Context) {
	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.List(c.Request.Context(), currentUser(c), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) SearchAll(c *gin.Context) {
	matches, err := h.service.Search(c.Request.Context(), currentUser(c), c.Query("q"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": matches})
}

func (h *Handler) ShowDocument(c *gin.Context) {
	doc, err := h.service.Get(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Rename(c *gin.Context) {
	var input CreateOrRenameRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	doc, err := h.service.Rename(c.Request.Context(), c.Param("id"), currentUser(c), input.Title)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) AddSection(c *gin.Context) {
	var input SectionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	section, err := h.service.AddSection(c.Request.Context(), c.Param("id"), currentUser(c), input.Title)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, section)
}

func (h *Handler) RemoveSection(c *gin.Context) {
	index, err := indexParam(c, "section")
	if err != nil {
		c.Error(err)
		return
	}

	doc, err := h.service.RemoveSection(c.Request.Context(), c.Param("id"), currentUser(c), index)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) AddElement(c *gin.Context) {
	var input ElementRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	el, err := h.service.AddElement(c.Request.Context(), c.Param("id"), currentUser(c), c.Param("section"), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, el)
}

func (h *Handler) ReplaceElement(c *gin.Context) {
	index, err := indexParam(c, "index")
	if err != nil {
		c.Error(err)
		return
	}
	var input ElementRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	el, err := h.service.ReplaceElement(c.Request.Context(), c.Param("id"), currentUser(c), c.Param("section"), index, input.Element)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, el)
}

func (h *Handler) RemoveElement(c *gin.Context) {
	index, err := indexParam(c, "index")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.RemoveElement(c.Request.Context(), c.Param("id"), currentUser(c), c.Param("section"), index); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ModifyStyling(c *gin.Context) {
	index, err := indexParam(c, "index")
	if err != nil {
		c.Error(err)
		return
	}
	var patch docmodel.StylePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	el, err := h.service.ModifyStyling(c.Request.Context(), c.Param("id"), currentUser(c), c.Param("section"), index, patch)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, el)
}

func (h *Handler) SetCell(c *gin.Context) {
	index, err := indexParam(c, "index")
	if err != nil {
		c.Error(err)
		return
	}
	var input CellRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	el, err := h.service.SetCell(c.Request.Context(), c.Param("id"), currentUser(c), c.Param("section"), index, input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, el)
}

func (h *Handler) AddComment(c *gin.Context) {
	var input CommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), c.Param("id"), currentUser(c), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) AddCollaborator(c *gin.Context) {
	var input CollaboratorRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	collaborators, err := h.service.AddCollaborator(c.Request.Context(), c.Param("id"), currentUser(c), input.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"collaborators": collaborators})
}

func (h *Handler) RemoveCollaborator(c *gin.Context) {
	target, err := strconv.ParseUint(c.Param("user"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid user", err))
		return
	}

	collaborators, err := h.service.RemoveCollaborator(c.Request.Context(), c.Param("id"), currentUser(c), target)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"collaborators": collaborators})
}

func (h *Handler) AddTag(c *gin.Context) {
	var input TagRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	tags, err := h.service.AddTag(c.Request.Context(), c.Param("id"), currentUser(c), input.Tag)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (h *Handler) RemoveTag(c *gin.Context) {
	tags, err := h.service.RemoveTag(c.Request.Context(), c.Param("id"), currentUser(c), c.Param("tag"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (h *Handler) SearchDocument(c *gin.Context) {
	results, err := h.service.SearchDocument(c.Request.Context(), c.Param("id"), currentUser(c), c.Query("q"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}

func (h *Handler) SaveVersion(c *gin.Context) {
	index, err := h.service.SaveVersion(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"index": index})
}

func (h *Handler) CountVersions(c *gin.Context) {
	n, err := h.service.CountVersions(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, VersionsResponse{Count: n})
}

func (h *Handler) Revert(c *gin.Context) {
	index, err := indexParam(c, "index")
	if err != nil {
		c.Error(err)
		return
	}

	doc, err := h.service.Revert(c.Request.Context(), c.Param("id"), currentUser(c), index)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Export(c *gin.Context) {
	id := c.Param("id")
	out, exporter, err := h.service.Export(c.Request.Context(), id, currentUser(c), c.Param("format"))
	if err != nil {
		c.Error(err)
		return
	}

	if c.Query("download") != "" {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s%s"`, id, exporter.Extension()))
	}
	c.Data(http.StatusOK, exporter.ContentType(), out)
}

func (h *Handler) Columns(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("n", "2"))
	if err != nil {
		c.Error(errors.BadRequest("Invalid column count", err))
		return
	}

	columns, err := h.service.Columns(c.Request.Context(), c.Param("id"), currentUser(c), n)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"columns": columns})
}
