package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pixelprint/storefront/internal/api/middleware"
	"github.com/pixelprint/storefront/internal/core/credits"
)

type CreditsService interface {
	Balance(ctx context.Context, token, userID string) (*credits.Balance, error)
	Packages(ctx context.Context, token string) ([]credits.Package, error)
	CreateCheckout(ctx context.Context, token, userID, pkg string) (*credits.CheckoutSession, error)
}

type CreditsHandler struct {
	credits CreditsService
}

func NewCreditsHandler(svc CreditsService) *CreditsHandler {
	return &CreditsHandler{credits: svc}
}

func (h *CreditsHandler) Balance(c *gin.Context) {
	session := middleware.GetSession(c)

	balance, err := h.credits.Balance(c.Request.Context(), session.Token, session.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

func (h *CreditsHandler) Packages(c *gin.Context) {
	packages, err := h.credits.Packages(c.Request.Context(), middleware.GetSession(c).Token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": packages})
}

func (h *CreditsHandler) Checkout(c *gin.Context) {
	var req credits.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session := middleware.GetSession(c)

	checkout, err := h.credits.CreateCheckout(c.Request.Context(), session.Token, session.UserID, req.Package)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, checkout)
}
