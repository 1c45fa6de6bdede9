package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pixelprint/storefront/internal/api/middleware"
	"github.com/pixelprint/storefront/internal/core/wizard"
)

type StartWizardRequest struct {
	ImageURL    string `json:"imageUrl"`
	ImageID     string `json:"imageId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type SelectBlueprintRequest struct {
	BlueprintID int `json:"blueprintId" binding:"required"`
}

type SelectProviderRequest struct {
	ProviderID int `json:"providerId" binding:"required"`
}

type ToggleColorRequest struct {
	Color string `json:"color" binding:"required"`
}

type DetailsRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type WizardHandler struct {
	wizard *wizard.Service
}

func NewWizardHandler(wizardService *wizard.Service) *WizardHandler {
	return &WizardHandler{wizard: wizardService}
}

func (h *WizardHandler) Start(c *gin.Context) {
	var req StartWizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.wizard.Start(c.Request.Context(), middleware.GetSession(c), wizard.Details{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		ImageID:     req.ImageID,
	})
	if err != nil {
		respondWizardError(c, err, snap)
		return
	}

	c.JSON(http.StatusCreated, snap)
}

func (h *WizardHandler) Get(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	snap, err := h.wizard.Get(middleware.GetSession(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (h *WizardHandler) Cancel(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	if err := h.wizard.Cancel(middleware.GetSession(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *WizardHandler) SelectBlueprint(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req SelectBlueprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.wizard.SelectBlueprint(c.Request.Context(), middleware.GetSession(c), id, req.BlueprintID)
	h.respond(c, snap, err)
}

func (h *WizardHandler) ReloadBlueprints(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	snap, err := h.wizard.ReloadBlueprints(c.Request.Context(), middleware.GetSession(c), id)
	h.respond(c, snap, err)
}

func (h *WizardHandler) ReloadProviders(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	snap, err := h.wizard.ReloadProviders(c.Request.Context(), middleware.GetSession(c), id)
	h.respond(c, snap, err)
}

func (h *WizardHandler) SelectProvider(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req SelectProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.wizard.SelectProvider(c.Request.Context(), middleware.GetSession(c), id, req.ProviderID)
	h.respond(c, snap, err)
}

func (h *WizardHandler) ReloadVariants(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	snap, err := h.wizard.ReloadVariants(c.Request.Context(), middleware.GetSession(c), id)
	h.respond(c, snap, err)
}

func (h *WizardHandler) ToggleColor(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req ToggleColorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.wizard.ToggleColor(middleware.GetSession(c), id, req.Color)
	h.respond(c, snap, err)
}

func (h *WizardHandler) ToggleVariant(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	variantID, ok := intParam(c, "variantId")
	if !ok {
		return
	}

	snap, err := h.wizard.ToggleVariant(middleware.GetSession(c), id, variantID)
	h.respond(c, snap, err)
}

func (h *WizardHandler) SetDetails(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req DetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.wizard.SetDetails(middleware.GetSession(c), id, req.Title, req.Description)
	h.respond(c, snap, err)
}

// Submit creates the product. On success the session is gone and the
// response carries the created product; on failure the session stays open
// with its selections intact.
func (h *WizardHandler) Submit(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	result, snap, err := h.wizard.Submit(c.Request.Context(), middleware.GetSession(c), id)
	if err != nil {
		respondWizardError(c, err, snap)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *WizardHandler) respond(c *gin.Context, snap wizard.Snapshot, err error) {
	if err != nil {
		respondWizardError(c, err, snap)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return uuid.Nil, false
	}
	return id, true
}
