package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pixelprint/storefront/internal/api/middleware"
	"github.com/pixelprint/storefront/internal/core/gallery"
)

type Gallery interface {
	List(ctx context.Context, token string, page, limit int) (*gallery.Page, error)
	Get(ctx context.Context, token, id string) (*gallery.Image, error)
	Delete(ctx context.Context, token, id string) error
	UpdateStatus(ctx context.Context, token, id string, status gallery.Status) (*gallery.Image, error)
}

// ImageHandler serves the caller's saved images.
type ImageHandler struct {
	gallery Gallery
}

func NewImageHandler(g Gallery) *ImageHandler {
	return &ImageHandler{gallery: g}
}

func (h *ImageHandler) List(c *gin.Context) {
	page := queryInt(c, "page", gallery.DefaultPage)
	limit := queryInt(c, "limit", gallery.DefaultLimit)

	result, err := h.gallery.List(c.Request.Context(), middleware.GetSession(c).Token, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ImageHandler) Get(c *gin.Context) {
	img, err := h.gallery.Get(c.Request.Context(), middleware.GetSession(c).Token, c.Param("imageId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, img)
}

func (h *ImageHandler) Delete(c *gin.Context) {
	if err := h.gallery.Delete(c.Request.Context(), middleware.GetSession(c).Token, c.Param("imageId")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ImageHandler) UpdateStatus(c *gin.Context) {
	var req gallery.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	img, err := h.gallery.UpdateStatus(c.Request.Context(), middleware.GetSession(c).Token, c.Param("imageId"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, img)
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}
