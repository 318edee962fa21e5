// Package api exposes the character library and story projects over HTTP.
// Handlers decode raw JSON into untyped values and hand them to the
// services; normalization happens there, so a handler never rejects a body
// the editor could legitimately send.
package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andreaspandu8619/mastercreator/internal/ai"
	"github.com/andreaspandu8619/mastercreator/internal/export"
	"github.com/andreaspandu8619/mastercreator/internal/models"
	"github.com/andreaspandu8619/mastercreator/internal/normalize"
	"github.com/andreaspandu8619/mastercreator/internal/service"
	apperrors "github.com/andreaspandu8619/mastercreator/pkg/errors"
)

// CharacterHandler serves the character library routes.
type CharacterHandler struct {
	library        *service.Library
	stories        *service.Stories
	generator      *ai.Generator
	renderer       *export.Renderer
	maxImportBytes int64
}

// NewCharacterHandler wires the character routes to their services.
func NewCharacterHandler(library *service.Library, stories *service.Stories, generator *ai.Generator, renderer *export.Renderer, maxImportBytes int64) *CharacterHandler {
	return &CharacterHandler{
		library:        library,
		stories:        stories,
		generator:      generator,
		renderer:       renderer,
		maxImportBytes: maxImportBytes,
	}
}

// List returns every character, newest-first.
func (h *CharacterHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.library.List())
}

// Get returns one character by id.
func (h *CharacterHandler) Get(c *gin.Context) {
	char, ok := h.library.Get(c.Param("id"))
	if !ok {
		c.Error(apperrors.NewEntityNotFoundError("character", c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, char)
}

// Save upserts a character from raw editor state.
func (h *CharacterHandler) Save(c *gin.Context) {
	var raw any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.Error(apperrors.NewValidationError("request body must be JSON"))
		return
	}
	char, err := h.library.Save(c.Request.Context(), raw)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, char)
}

// Update upserts a character under the id in the path, regardless of any id
// in the body.
func (h *CharacterHandler) Update(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.Error(apperrors.NewValidationError("request body must be a JSON object"))
		return
	}
	raw["id"] = c.Param("id")
	char, err := h.library.Save(c.Request.Context(), raw)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, char)
}

// Delete removes a character and cascades the removal into every story that
// references it.
func (h *CharacterHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.library.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	touched := h.stories.CascadeCharacterDelete(c.Request.Context(), id)
	c.JSON(http.StatusOK, gin.H{"deleted": id, "storiesUpdated": touched})
}

// Import merges an uploaded JSON array into the library.
func (h *CharacterHandler) Import(c *gin.Context) {
	reader := io.Reader(c.Request.Body)
	if h.maxImportBytes > 0 {
		reader = io.LimitReader(reader, h.maxImportBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		c.Error(apperrors.NewImportFormatError("could not read import payload"))
		return
	}
	if h.maxImportBytes > 0 && int64(len(data)) > h.maxImportBytes {
		c.Error(apperrors.NewImportFormatError("import payload is too large"))
		return
	}

	n, err := h.library.ImportJSON(c.Request.Context(), data)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n})
}

// ExportAll streams the whole library as a downloadable JSON array.
func (h *CharacterHandler) ExportAll(c *gin.Context) {
	data, err := export.CharactersJSON(h.library.List())
	if err != nil {
		c.Error(apperrors.NewInternalServerError("EXPORT_ERROR", err.Error()))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="characters.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

// Export renders one character as JSON or as a plain-text sheet, selected by
// the format query parameter.
func (h *CharacterHandler) Export(c *gin.Context) {
	char, ok := h.library.Get(c.Param("id"))
	if !ok {
		c.Error(apperrors.NewEntityNotFoundError("character", c.Param("id")))
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		data, err := export.CharacterJSON(char)
		if err != nil {
			c.Error(apperrors.NewInternalServerError("EXPORT_ERROR", err.Error()))
			return
		}
		c.Data(http.StatusOK, "application/json", data)
	case "text":
		c.String(http.StatusOK, h.renderer.CharacterText(char))
	default:
		c.Error(apperrors.NewValidationError("format must be json or text"))
	}
}

type introRequest struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
	Delta int    `json:"delta"`
}

// AddIntro appends an intro message and selects it.
func (h *CharacterHandler) AddIntro(c *gin.Context) {
	var req introRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("request body must be JSON"))
		return
	}
	char, err := h.library.AddIntro(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, char)
}

// SelectIntro selects an intro by index, with wraparound.
func (h *CharacterHandler) SelectIntro(c *gin.Context) {
	var req introRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("request body must be JSON"))
		return
	}
	char, err := h.library.SelectIntro(c.Request.Context(), c.Param("id"), req.Index)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, char)
}

// AdvanceIntro steps the intro selection forward or back, with wraparound.
func (h *CharacterHandler) AdvanceIntro(c *gin.Context) {
	var req introRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("request body must be JSON"))
		return
	}
	if req.Delta == 0 {
		req.Delta = 1
	}
	char, err := h.library.AdvanceIntro(c.Request.Context(), c.Param("id"), req.Delta)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, char)
}

type generateRequest struct {
	Field     string         `json:"field"`
	Character map[string]any `json:"character"`
}

// Generate produces a suggestion for one field of a saved character.
func (h *CharacterHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("request body must be JSON"))
		return
	}
	char, ok := h.library.Get(c.Param("id"))
	if !ok {
		c.Error(apperrors.NewEntityNotFoundError("character", c.Param("id")))
		return
	}
	h.generate(c, req.Field, char)
}

// GenerateDraft produces a suggestion for a character that has not been
// saved yet; the editor sends its current form state along.
func (h *CharacterHandler) GenerateDraft(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("request body must be JSON"))
		return
	}
	// Drafts are normalized but never saved; a draft without a name still
	// generates, it just gets less context.
	char := models.Character{Name: "an unnamed character"}
	if normalized, ok := normalize.Character(req.Character); ok {
		char = *normalized
	}
	h.generate(c, req.Field, char)
}

func (h *CharacterHandler) generate(c *gin.Context, field string, char models.Character) {
	s, err := h.generator.Generate(c.Request.Context(), field, char)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, s)
}
