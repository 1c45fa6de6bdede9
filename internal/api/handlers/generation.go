package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pixelprint/storefront/internal/api/middleware"
	"github.com/pixelprint/storefront/internal/core/auth"
	"github.com/pixelprint/storefront/internal/core/generation"
)

const RemainingCreditsHeader = "X-Remaining-Credits"

type Generator interface {
	Generate(ctx context.Context, session auth.Session, req generation.Request) (*generation.Result, error)
}

type GenerationHandler struct {
	generator Generator
}

func NewGenerationHandler(generator Generator) *GenerationHandler {
	return &GenerationHandler{generator: generator}
}

// Generate answers with the image itself for single-sample requests and with
// JSON metadata otherwise.
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req generation.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.generator.Generate(c.Request.Context(), middleware.GetSession(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Remaining != nil {
		c.Header(RemainingCreditsHeader, strconv.Itoa(*result.Remaining))
	}
	if result.Raw() {
		c.Data(http.StatusOK, result.ContentType, result.Image)
		return
	}
	c.JSON(http.StatusOK, result)
}
