package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andreaspandu8619/mastercreator/internal/export"
	"github.com/andreaspandu8619/mastercreator/internal/models"
	"github.com/andreaspandu8619/mastercreator/internal/service"
	apperrors "github.com/andreaspandu8619/mastercreator/pkg/errors"
)

// StoryHandler serves the story project routes.
type StoryHandler struct {
	stories  *service.Stories
	library  *service.Library
	renderer *export.Renderer
}

// NewStoryHandler wires the story routes to their services.
func NewStoryHandler(stories *service.Stories, library *service.Library, renderer *export.Renderer) *StoryHandler {
	return &StoryHandler{stories: stories, library: library, renderer: renderer}
}

// List returns every story project.
func (h *StoryHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.stories.List())
}

// Get returns one story by id.
func (h *StoryHandler) Get(c *gin.Context) {
	p, ok := h.stories.Get(c.Param("id"))
	if !ok {
		c.Error(apperrors.NewEntityNotFoundError("story", c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, p)
}

// Save upserts a story from raw editor state.
func (h *StoryHandler) Save(c *gin.Context) {
	var raw any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.Error(apperrors.NewValidationError("request body must be JSON"))
		return
	}
	p, err := h.stories.Save(c.Request.Context(), raw)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Update upserts a story under the id in the path.
func (h *StoryHandler) Update(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.Error(apperrors.NewValidationError("request body must be a JSON object"))
		return
	}
	raw["id"] = c.Param("id")
	p, err := h.stories.Save(c.Request.Context(), raw)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete removes a story project. The character library is untouched.
func (h *StoryHandler) Delete(c *gin.Context) {
	if err := h.stories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

type castRequest struct {
	CharacterID string `json:"characterId"`
}

// AddCast adds a character to the story cast.
func (h *StoryHandler) AddCast(c *gin.Context) {
	var req castRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CharacterID == "" {
		c.Error(apperrors.NewValidationError("characterId is required"))
		return
	}
	p, err := h.stories.AddToCast(c.Request.Context(), c.Param("id"), req.CharacterID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// RemoveCast removes a character from the cast only; the graph keeps any
// references it held.
func (h *StoryHandler) RemoveCast(c *gin.Context) {
	p, err := h.stories.RemoveFromCast(c.Request.Context(), c.Param("id"), c.Param("characterId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type placeRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlaceNode sets a character's board position.
func (h *StoryHandler) PlaceNode(c *gin.Context) {
	var req placeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("request body must be JSON"))
		return
	}
	p, err := h.stories.PlaceNode(c.Request.Context(), c.Param("id"), c.Param("characterId"), req.X, req.Y)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DetachCharacter removes a character's board node and every edge touching
// it from one story.
func (h *StoryHandler) DetachCharacter(c *gin.Context) {
	p, err := h.stories.DetachCharacter(c.Request.Context(), c.Param("id"), c.Param("characterId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// AddRelationship creates an edge from raw editor state.
func (h *StoryHandler) AddRelationship(c *gin.Context) {
	var raw any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.Error(apperrors.NewValidationError("request body must be JSON"))
		return
	}
	p, err := h.stories.AddRelationship(c.Request.Context(), c.Param("id"), raw)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateRelationship replaces an edge's labels.
func (h *StoryHandler) UpdateRelationship(c *gin.Context) {
	var raw any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.Error(apperrors.NewValidationError("request body must be JSON"))
		return
	}
	p, err := h.stories.UpdateRelationship(c.Request.Context(), c.Param("id"), c.Param("relId"), raw)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteRelationship removes one edge.
func (h *StoryHandler) DeleteRelationship(c *gin.Context) {
	p, err := h.stories.DeleteRelationship(c.Request.Context(), c.Param("id"), c.Param("relId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ExportAll streams every story as a downloadable JSON array.
func (h *StoryHandler) ExportAll(c *gin.Context) {
	data, err := export.StoriesJSON(h.stories.List())
	if err != nil {
		c.Error(apperrors.NewInternalServerError("EXPORT_ERROR", err.Error()))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="stories.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

// Export renders one story as JSON or as a plain-text sheet.
func (h *StoryHandler) Export(c *gin.Context) {
	p, ok := h.stories.Get(c.Param("id"))
	if !ok {
		c.Error(apperrors.NewEntityNotFoundError("story", c.Param("id")))
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		data, err := export.StoryJSON(p)
		if err != nil {
			c.Error(apperrors.NewInternalServerError("EXPORT_ERROR", err.Error()))
			return
		}
		c.Data(http.StatusOK, "application/json", data)
	case "text":
		lookup := func(id string) (models.Character, bool) { return h.library.Get(id) }
		c.String(http.StatusOK, h.renderer.StoryText(p, lookup))
	default:
		c.Error(apperrors.NewValidationError("format must be json or text"))
	}
}
