package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pixelprint/storefront/internal/api/middleware"
	"github.com/pixelprint/storefront/internal/core/catalog"
)

type CatalogReader interface {
	ListBlueprints(ctx context.Context, token string) ([]catalog.Blueprint, error)
	ListProviders(ctx context.Context, token string, blueprintID int) ([]catalog.Provider, error)
	ListVariants(ctx context.Context, token string, blueprintID, providerID int) ([]catalog.Variant, error)
}

// CatalogHandler proxies the print catalog for clients that drive the
// selection themselves.
type CatalogHandler struct {
	catalog CatalogReader
}

func NewCatalogHandler(catalog CatalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) ListBlueprints(c *gin.Context) {
	session := middleware.GetSession(c)

	blueprints, err := h.catalog.ListBlueprints(c.Request.Context(), session.Token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": blueprints})
}

func (h *CatalogHandler) ListProviders(c *gin.Context) {
	blueprintID, ok := intParam(c, "blueprintId")
	if !ok {
		return
	}
	session := middleware.GetSession(c)

	providers, err := h.catalog.ListProviders(c.Request.Context(), session.Token, blueprintID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": providers})
}

// ListVariants returns the variants together with their color grouping.
func (h *CatalogHandler) ListVariants(c *gin.Context) {
	blueprintID, ok := intParam(c, "blueprintId")
	if !ok {
		return
	}
	providerID, ok := intParam(c, "providerId")
	if !ok {
		return
	}
	session := middleware.GetSession(c)

	variants, err := h.catalog.ListVariants(c.Request.Context(), session.Token, blueprintID, providerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   variants,
		"colors": catalog.BuildIndex(variants).Groups(),
	})
}
