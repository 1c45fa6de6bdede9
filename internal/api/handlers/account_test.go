package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/pixelprint/storefront/internal/core/auth"
	"github.com/pixelprint/storefront/internal/core/credits"
	"github.com/pixelprint/storefront/internal/core/gallery"
	"github.com/pixelprint/storefront/internal/core/generation"
)

type fakeGallery struct {
	page, limit int
	token       string
	status      gallery.Status
}

func (f *fakeGallery) List(ctx context.Context, token string, page, limit int) (*gallery.Page, error) {
	f.token, f.page, f.limit = token, page, limit
	return &gallery.Page{Images: []gallery.Image{{ID: "img-1"}}, Total: 1, Page: page, Limit: limit, TotalPages: 1}, nil
}

func (f *fakeGallery) Get(ctx context.Context, token, id string) (*gallery.Image, error) {
	if id != "img-1" {
		return nil, gallery.ErrNotFound
	}
	return &gallery.Image{ID: id}, nil
}

func (f *fakeGallery) Delete(ctx context.Context, token, id string) error {
	return nil
}

func (f *fakeGallery) UpdateStatus(ctx context.Context, token, id string, status gallery.Status) (*gallery.Image, error) {
	f.status = status
	return &gallery.Image{ID: id, Status: status}, nil
}

type fakeGenerator struct {
	result *generation.Result
	err    error
}

func (f *fakeGenerator) Generate(ctx context.Context, session auth.Session, req generation.Request) (*generation.Result, error) {
	return f.result, f.err
}

type fakeCredits struct {
	err error
}

func (f *fakeCredits) Balance(ctx context.Context, token, userID string) (*credits.Balance, error) {
	return &credits.Balance{UserID: userID, Credits: 4, CanGenerate: true}, nil
}

func (f *fakeCredits) Packages(ctx context.Context, token string) ([]credits.Package, error) {
	return []credits.Package{{ID: "basic", Credits: 10}}, nil
}

func (f *fakeCredits) CreateCheckout(ctx context.Context, token, userID, pkg string) (*credits.CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &credits.CheckoutSession{SessionID: "cs_1", URL: "https://pay/cs_1"}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestImages_ListPassesPaging(t *testing.T) {
	r := newTestEngine()
	fg := &fakeGallery{}
	h := NewImageHandler(fg)
	r.GET("/images", h.List)

	w := doJSON(r, http.MethodGet, "/images?page=3&limit=25", "user-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if fg.page != 3 || fg.limit != 25 || fg.token != "tok-user-1" {
		t.Errorf("unexpected call page=%d limit=%d token=%q", fg.page, fg.limit, fg.token)
	}

	doJSON(r, http.MethodGet, "/images?page=x", "user-1", nil)
	if fg.page != gallery.DefaultPage || fg.limit != gallery.DefaultLimit {
		t.Errorf("defaults not applied: page=%d limit=%d", fg.page, fg.limit)
	}
}

func TestImages_GetUpdateDelete(t *testing.T) {
	r := newTestEngine()
	fg := &fakeGallery{}
	h := NewImageHandler(fg)
	r.GET("/images/:imageId", h.Get)
	r.DELETE("/images/:imageId", h.Delete)
	r.PATCH("/images/:imageId/status", h.UpdateStatus)

	if w := doJSON(r, http.MethodGet, "/images/missing", "user-1", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodDelete, "/images/img-1", "user-1", nil); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	w := doJSON(r, http.MethodPatch, "/images/img-1/status", "user-1", gallery.UpdateStatusRequest{Status: gallery.StatusOrdered})
	if w.Code != http.StatusOK || fg.status != gallery.StatusOrdered {
		t.Errorf("unexpected status update %d %q", w.Code, fg.status)
	}
	if w := doJSON(r, http.MethodPatch, "/images/img-1/status", "user-1", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing status: expected 400, got %d", w.Code)
	}
}

func TestGeneration_RawImage(t *testing.T) {
	remaining := 2
	r := newTestEngine()
	h := NewGenerationHandler(&fakeGenerator{result: &generation.Result{ContentType: "image/png", Image: []byte("png"), Remaining: &remaining}})
	r.POST("/images/generate", h.Generate)

	w := doJSON(r, http.MethodPost, "/images/generate", "user-1", generation.Request{Prompt: "fox"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "image/png" || w.Body.String() != "png" {
		t.Errorf("unexpected image response %q %q", w.Header().Get("Content-Type"), w.Body.String())
	}
	if w.Header().Get(RemainingCreditsHeader) != "2" {
		t.Errorf("unexpected remaining credits header %q", w.Header().Get(RemainingCreditsHeader))
	}
}

func TestGeneration_InsufficientCredits(t *testing.T) {
	r := newTestEngine()
	h := NewGenerationHandler(&fakeGenerator{err: credits.ErrInsufficientCredits})
	r.POST("/images/generate", h.Generate)

	w := doJSON(r, http.MethodPost, "/images/generate", "user-1", generation.Request{Prompt: "fox"})
	if w.Code != http.StatusPaymentRequired {
		t.Errorf("expected 402, got %d", w.Code)
	}
}

func TestCredits(t *testing.T) {
	r := newTestEngine()
	fc := &fakeCredits{}
	h := NewCreditsHandler(fc)
	r.GET("/credits", h.Balance)
	r.GET("/credits/packages", h.Packages)
	r.POST("/credits/checkout", h.Checkout)

	w := doJSON(r, http.MethodGet, "/credits", "user-1", nil)
	var balance credits.Balance
	decode(t, w, &balance)
	if balance.UserID != "user-1" || balance.Credits != 4 {
		t.Errorf("unexpected balance %+v", balance)
	}

	if w := doJSON(r, http.MethodGet, "/credits/packages", "", nil); w.Code != http.StatusOK {
		t.Errorf("packages: expected 200, got %d", w.Code)
	}

	if w := doJSON(r, http.MethodPost, "/credits/checkout", "user-1", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing package: expected 400, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/credits/checkout", "user-1", credits.CheckoutRequest{Package: "basic"}); w.Code != http.StatusCreated {
		t.Errorf("checkout: expected 201, got %d", w.Code)
	}

	fc.err = &credits.ServiceError{Message: "Failed to create payment session"}
	if w := doJSON(r, http.MethodPost, "/credits/checkout", "user-1", credits.CheckoutRequest{Package: "basic"}); w.Code != http.StatusBadGateway {
		t.Errorf("billing failure: expected 502, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := newTestEngine()
	r.GET("/disabled", NewHealthHandler(nil, nil).Check)
	r.GET("/up", NewHealthHandler(fakePinger{}, nil).Check)
	r.GET("/down", NewHealthHandler(fakePinger{err: errors.New("refused")}, nil).Check)

	cases := map[string]struct {
		code int
		body string
	}{
		"/disabled": {http.StatusOK, `{"database":"disabled","status":"ok"}`},
		"/up":       {http.StatusOK, `{"database":"up","status":"ok"}`},
		"/down":     {http.StatusServiceUnavailable, `{"database":"down","status":"degraded"}`},
	}
	for path, want := range cases {
		w := doJSON(r, http.MethodGet, path, "", nil)
		if w.Code != want.code || w.Body.String() != want.body {
			t.Errorf("%s: got %d %s", path, w.Code, w.Body.String())
		}
	}
}
