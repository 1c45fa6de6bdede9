package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/pixelprint/storefront/internal/core/auth"
	"github.com/pixelprint/storefront/internal/core/catalog"
	"github.com/pixelprint/storefront/internal/core/gallery"
	"github.com/pixelprint/storefront/internal/httpclient"
	"github.com/pixelprint/storefront/internal/metrics"
)

var ErrSubmissionFailed = errors.New("product submission failed")

// SubmissionError carries the fulfillment backend's verdict. Status is zero
// when the backend could not be reached or answered 2xx with success=false.
type SubmissionError struct {
	Status  int
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("product submission failed with status %d: %s", e.Status, e.Message)
	}
	return "product submission failed: " + e.Message
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func (e *SubmissionError) Is(target error) bool { return target == ErrSubmissionFailed }

type Creator interface {
	CreateProduct(ctx context.Context, token string, req *catalog.CreateProductRequest) (*catalog.CreateProductResult, error)
}

type Recorder interface {
	Create(ctx context.Context, rec *Record) error
	ListByUser(ctx context.Context, userID string) ([]*Record, error)
}

type ImageMarker interface {
	UpdateStatus(ctx context.Context, token, id string, status gallery.Status) (*gallery.Image, error)
}

// Service submits products. The recorder and image marker are optional.
type Service struct {
	creator  Creator
	recorder Recorder
	images   ImageMarker
	log      logrus.FieldLogger
}

func NewService(creator Creator, recorder Recorder, images ImageMarker, log logrus.FieldLogger) *Service {
	return &Service{
		creator:  creator,
		recorder: recorder,
		images:   images,
		log:      log,
	}
}

// Submit validates and posts the payload. Nothing is sent when validation
// fails. Once the backend has created the product, local bookkeeping failures
// are logged and do not fail the call, since retrying would create a
// duplicate remote product.
func (s *Service) Submit(ctx context.Context, session auth.Session, p Payload) (*Result, error) {
	p = p.Normalize()
	if err := Validate(p); err != nil {
		metrics.RecordSubmission("invalid")
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{
		"user_id":      session.UserID,
		"blueprint_id": p.BlueprintID,
		"provider_id":  p.PrintProviderID,
		"variants":     len(p.VariantIDs),
	})

	res, err := s.creator.CreateProduct(ctx, session.Token, p.Request())
	if err != nil {
		metrics.RecordSubmission("failed")
		serr := &SubmissionError{Message: "fulfillment backend unreachable", Err: err}
		if se, ok := httpclient.AsStatusError(err); ok {
			serr.Status = se.Status
			serr.Message = messageFromBody(se.Body)
		}
		log.WithError(err).Warn("product creation failed")
		return nil, serr
	}
	if !res.Success || res.Product == nil {
		metrics.RecordSubmission("failed")
		msg := res.Message
		if msg == "" {
			msg = "product creation was rejected"
		}
		log.WithField("message", msg).Warn("product creation rejected")
		return nil, &SubmissionError{Message: msg}
	}

	metrics.RecordSubmission("created")
	log = log.WithField("product_id", res.Product.ID)
	log.Info("product created")

	result := &Result{Product: res.Product, Message: res.Message}

	if s.recorder != nil && session.Trusted() {
		rec := &Record{
			ID:              uuid.New(),
			UserID:          session.UserID,
			RemoteID:        res.Product.ID,
			Title:           p.Title,
			Description:     p.Description,
			ImageURL:        p.ImageURL,
			ImageID:         p.ImageID,
			BlueprintID:     p.BlueprintID,
			PrintProviderID: p.PrintProviderID,
			VariantIDs:      p.VariantIDs,
		}
		if err := s.recorder.Create(ctx, rec); err != nil {
			log.WithError(err).Error("failed to record product")
		} else {
			result.Record = rec
		}
	}

	if s.images != nil && p.ImageID != "" {
		if _, err := s.images.UpdateStatus(ctx, session.Token, p.ImageID, gallery.StatusPrinted); err != nil {
			log.WithError(err).WithField("image_id", p.ImageID).Warn("failed to mark image printed")
		}
	}

	return result, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]*Record, error) {
	if s.recorder == nil {
		return []*Record{}, nil
	}
	records, err := s.recorder.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if records == nil {
		records = []*Record{}
	}
	return records, nil
}

const maxMessageRunes = 200

func messageFromBody(body []byte) string {
	if gjson.ValidBytes(body) {
		root := gjson.ParseBytes(body)
		for _, p := range []string{"message", "error", "details"} {
			if v := root.Get(p); v.Exists() && v.String() != "" {
				return v.String()
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "no details"
	}
	if r := []rune(msg); len(r) > maxMessageRunes {
		msg = string(r[:maxMessageRunes])
	}
	return msg
}
