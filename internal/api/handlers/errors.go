package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pixelprint/storefront/internal/core/auth"
	"github.com/pixelprint/storefront/internal/core/catalog"
	"github.com/pixelprint/storefront/internal/core/credits"
	"github.com/pixelprint/storefront/internal/core/gallery"
	"github.com/pixelprint/storefront/internal/core/generation"
	"github.com/pixelprint/storefront/internal/core/product"
	"github.com/pixelprint/storefront/internal/core/validation"
	"github.com/pixelprint/storefront/internal/core/wizard"
)

// statusFor maps core errors onto HTTP status codes.
func statusFor(err error) int {
	var serr *credits.ServiceError
	switch {
	case validation.IsValidationError(err),
		errors.Is(err, wizard.ErrUnknownBlueprint),
		errors.Is(err, wizard.ErrUnknownProvider),
		errors.Is(err, wizard.ErrUnknownColor),
		errors.Is(err, wizard.ErrUnknownVariant):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wizard.ErrSessionNotFound),
		errors.Is(err, gallery.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrStale),
		errors.Is(err, wizard.ErrSubmitInProgress),
		errors.Is(err, wizard.ErrNoBlueprint),
		errors.Is(err, wizard.ErrNoProvider):
		return http.StatusConflict
	case errors.Is(err, credits.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, catalog.ErrCatalogUnavailable),
		errors.Is(err, product.ErrSubmissionFailed),
		errors.Is(err, generation.ErrGenerationFailed),
		errors.As(err, &serr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	if verrs := validation.GetValidationErrors(err); verrs != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verrs.Errors})
		return
	}
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// respondWizardError also returns the session state so the client can keep
// rendering it next to the error.
func respondWizardError(c *gin.Context, err error, snap wizard.Snapshot) {
	_ = c.Error(err)
	body := gin.H{"error": err.Error()}
	if verrs := validation.GetValidationErrors(err); verrs != nil {
		body = gin.H{"errors": verrs.Errors}
	}
	if snap.ID != "" {
		body["session"] = snap
	}
	c.JSON(statusFor(err), body)
}

func intParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return n, true
}
