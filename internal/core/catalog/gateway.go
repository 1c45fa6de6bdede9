package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pixelprint/storefront/internal/httpclient"
	"github.com/pixelprint/storefront/internal/metrics"
)

// ErrCatalogUnavailable matches every failed blueprint, provider or variant
// fetch, whatever the cause.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// UnavailableError describes a failed catalog fetch. Status is zero for
// transport failures.
type UnavailableError struct {
	Op     string
	Status int
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: catalog returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrCatalogUnavailable }

const (
	OpListBlueprints = "list_blueprints"
	OpListProviders  = "list_providers"
	OpListVariants   = "list_variants"
	OpCreateProduct  = "create_product"
)

// Gateway talks to the print fulfillment backend. It holds no state besides
// its transport; every call carries the caller's session token explicitly.
type Gateway struct {
	client *httpclient.Client
	log    logrus.FieldLogger
}

func NewGateway(client *httpclient.Client, log logrus.FieldLogger) *Gateway {
	return &Gateway{client: client, log: log}
}

func (g *Gateway) ListBlueprints(ctx context.Context, token string) ([]Blueprint, error) {
	var blueprints []Blueprint
	err := g.fetchList(ctx, OpListBlueprints, "/blueprints", token, func(body []byte) error {
		var err error
		blueprints, err = NormalizeBlueprints(body)
		return err
	})
	return blueprints, err
}

func (g *Gateway) ListProviders(ctx context.Context, token string, blueprintID int) ([]Provider, error) {
	var providers []Provider
	path := fmt.Sprintf("/blueprints/%d/providers", blueprintID)
	err := g.fetchList(ctx, OpListProviders, path, token, func(body []byte) error {
		var err error
		providers, err = NormalizeProviders(body)
		return err
	})
	return providers, err
}

func (g *Gateway) ListVariants(ctx context.Context, token string, blueprintID, providerID int) ([]Variant, error) {
	var variants []Variant
	path := fmt.Sprintf("/blueprints/%d/providers/%d/variants", blueprintID, providerID)
	err := g.fetchList(ctx, OpListVariants, path, token, func(body []byte) error {
		var err error
		variants, err = NormalizeVariants(body)
		return err
	})
	return variants, err
}

func (g *Gateway) fetchList(ctx context.Context, op, path, token string, decode func([]byte) error) error {
	start := time.Now()
	body, err := g.client.GetJSON(ctx, path, token)
	if err == nil {
		err = decode(body)
	}
	metrics.RecordCatalogRequest(op, err, time.Since(start))

	if err != nil {
		uerr := &UnavailableError{Op: op, Err: err}
		if se, ok := httpclient.AsStatusError(err); ok {
			uerr.Status = se.Status
		}
		g.log.WithFields(logrus.Fields{
			"operation": op,
			"path":      path,
			"status":    uerr.Status,
		}).WithError(err).Warn("catalog fetch failed")
		return uerr
	}
	return nil
}

// CreateProduct posts a product creation request. Non-2xx responses come back
// as *httpclient.StatusError; a 2xx body is normalized even when it reports
// success=false so the caller can surface the backend message.
func (g *Gateway) CreateProduct(ctx context.Context, token string, req *CreateProductRequest) (*CreateProductResult, error) {
	start := time.Now()
	body, err := g.client.PostJSON(ctx, "/product/create", token, req)
	var result *CreateProductResult
	if err == nil {
		result, err = NormalizeCreateProductResult(body)
	}
	metrics.RecordCatalogRequest(OpCreateProduct, err, time.Since(start))

	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return result, nil
}
