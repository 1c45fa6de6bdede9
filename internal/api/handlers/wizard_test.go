package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/pixelprint/storefront/internal/core/catalog"
	"github.com/pixelprint/storefront/internal/core/wizard"
)

func newWizardEngine(cat *fakeCatalog, fp *fakeProducts) (*gin.Engine, *wizard.Store) {
	logger, _ := test.NewNullLogger()
	store := wizard.NewStore(time.Hour)
	h := NewWizardHandler(wizard.NewService(cat, fp, store, nil, logger))

	r := newTestEngine()
	s := r.Group("/sessions")
	s.POST("", h.Start)
	s.GET("/:sessionId", h.Get)
	s.DELETE("/:sessionId", h.Cancel)
	s.POST("/:sessionId/blueprints/reload", h.ReloadBlueprints)
	s.PUT("/:sessionId/blueprint", h.SelectBlueprint)
	s.POST("/:sessionId/providers/reload", h.ReloadProviders)
	s.PUT("/:sessionId/provider", h.SelectProvider)
	s.POST("/:sessionId/variants/reload", h.ReloadVariants)
	s.POST("/:sessionId/colors/toggle", h.ToggleColor)
	s.POST("/:sessionId/variants/:variantId/toggle", h.ToggleVariant)
	s.PUT("/:sessionId/details", h.SetDetails)
	s.POST("/:sessionId/submit", h.Submit)
	return r, store
}

func TestWizard_FullFlow(t *testing.T) {
	fp := &fakeProducts{}
	r, store := newWizardEngine(&fakeCatalog{variants: testVariants}, fp)

	w := doJSON(r, http.MethodPost, "/sessions", "user-1", StartWizardRequest{ImageURL: "https://cdn/a.png", ImageID: "img-1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var snap wizard.Snapshot
	decode(t, w, &snap)
	if len(snap.Blueprints) != 2 || snap.Stage != wizard.StageNoBlueprint {
		t.Fatalf("unexpected start snapshot %+v", snap)
	}
	base := "/sessions/" + snap.ID

	steps := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodPut, base + "/blueprint", SelectBlueprintRequest{BlueprintID: 1}},
		{http.MethodPut, base + "/provider", SelectProviderRequest{ProviderID: 10}},
		{http.MethodPost, base + "/colors/toggle", ToggleColorRequest{Color: "Red"}},
		{http.MethodPost, base + "/variants/2/toggle", nil},
		{http.MethodPut, base + "/details", DetailsRequest{Title: "Sunset tee"}},
	}
	for _, step := range steps {
		w = doJSON(r, step.method, step.path, "user-1", step.body)
		if w.Code != http.StatusOK {
			t.Fatalf("%s %s: expected 200, got %d: %s", step.method, step.path, w.Code, w.Body.String())
		}
	}
	decode(t, w, &snap)
	if snap.Stage != wizard.StageReady || len(snap.SelectedVariantIDs) != 1 || snap.SelectedVariantIDs[0] != 2 {
		t.Fatalf("unexpected ready snapshot %+v", snap)
	}

	w = doJSON(r, http.MethodPost, base+"/submit", "user-1", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(fp.payloads) != 1 || fp.payloads[0].Description != "Sunset tee" || fp.payloads[0].ImageID != "img-1" {
		t.Errorf("unexpected payload %+v", fp.payloads)
	}
	if store.Len() != 0 {
		t.Error("session should be discarded after submission")
	}
}

func TestWizard_Errors(t *testing.T) {
	r, _ := newWizardEngine(&fakeCatalog{variants: testVariants}, &fakeProducts{})

	w := doJSON(r, http.MethodGet, "/sessions/not-a-uuid", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid id: expected 400, got %d", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/sessions/6f1c3f5e-3b7a-4d0e-9a55-1f1f1f1f1f1f", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown session: expected 404, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/sessions", "user-1", StartWizardRequest{})
	var snap wizard.Snapshot
	decode(t, w, &snap)
	base := "/sessions/" + snap.ID

	w = doJSON(r, http.MethodPut, base+"/provider", "user-1", SelectProviderRequest{ProviderID: 10})
	if w.Code != http.StatusConflict {
		t.Errorf("provider before blueprint: expected 409, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPut, base+"/blueprint", "user-1", SelectBlueprintRequest{BlueprintID: 99})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown blueprint: expected 422, got %d", w.Code)
	}
	var body struct {
		Error   string           `json:"error"`
		Session *wizard.Snapshot `json:"session"`
	}
	decode(t, w, &body)
	if body.Error == "" || body.Session == nil || body.Session.ID != snap.ID {
		t.Errorf("error response should carry the session, got %s", w.Body.String())
	}

	w = doJSON(r, http.MethodGet, base, "user-2", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("other user: expected 404, got %d", w.Code)
	}

	w = doJSON(r, http.MethodDelete, base, "user-1", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("cancel: expected 204, got %d", w.Code)
	}
}

func TestWizard_CatalogFailureReturnsSession(t *testing.T) {
	cat := &fakeCatalog{providersErr: &catalog.UnavailableError{Op: catalog.OpListProviders, Status: 503}}
	r, _ := newWizardEngine(cat, &fakeProducts{})

	w := doJSON(r, http.MethodPost, "/sessions", "", StartWizardRequest{})
	var snap wizard.Snapshot
	decode(t, w, &snap)
	base := "/sessions/" + snap.ID

	w = doJSON(r, http.MethodPut, base+"/blueprint", "", SelectBlueprintRequest{BlueprintID: 1})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	var body struct {
		Session wizard.Snapshot `json:"session"`
	}
	decode(t, w, &body)
	if body.Session.Stage != wizard.StageBlueprintChosen || body.Session.Error == "" {
		t.Errorf("session should keep the blueprint and carry the error, got %+v", body.Session)
	}

	cat.providersErr = nil
	w = doJSON(r, http.MethodPost, base+"/providers/reload", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("reload: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestWizard_SubmitValidationKeepsSession(t *testing.T) {
	r, store := newWizardEngine(&fakeCatalog{variants: testVariants}, &fakeProducts{})

	w := doJSON(r, http.MethodPost, "/sessions", "", StartWizardRequest{ImageURL: "https://cdn/a.png"})
	var snap wizard.Snapshot
	decode(t, w, &snap)

	w = doJSON(r, http.MethodPost, "/sessions/"+snap.ID+"/submit", "", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	if store.Len() != 1 {
		t.Error("session should survive a rejected submission")
	}
}
