package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/pixelprint/storefront/internal/core/auth"
	"github.com/pixelprint/storefront/internal/core/credits"
	"github.com/pixelprint/storefront/internal/core/gallery"
	"github.com/pixelprint/storefront/internal/core/validation"
	"github.com/pixelprint/storefront/internal/httpclient"
)

var (
	ErrGenerationFailed  = errors.New("failed to generate image")
	ErrMalformedResponse = errors.New("malformed generation response")
)

// Ledger is the part of the billing backend generation depends on.
type Ledger interface {
	Balance(ctx context.Context, token, userID string) (*credits.Balance, error)
	Use(ctx context.Context, token, userID string, amount int) (*credits.Usage, error)
}

var requestSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"prompt"},
	"properties": map[string]interface{}{
		"prompt": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
			"maxLength": MaxPromptLength,
		},
		"width":    map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 2048, "multipleOf": 64},
		"height":   map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 2048, "multipleOf": 64},
		"samples":  map[string]interface{}{"type": "integer", "minimum": 1, "maximum": MaxSamples},
		"steps":    map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 150},
		"cfgScale": map[string]interface{}{"type": "number", "minimum": 0, "maximum": 35},
	},
})

type Service struct {
	client *httpclient.Client
	ledger Ledger
	log    logrus.FieldLogger
}

func NewService(client *httpclient.Client, ledger Ledger, log logrus.FieldLogger) *Service {
	return &Service{client: client, ledger: ledger, log: log}
}

// Validate trims the prompt and checks the request bounds. Samples defaults
// to one.
func Validate(req Request) (Request, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Samples == 0 {
		req.Samples = 1
	}
	if err := requestSchema.Validate(req); err != nil {
		return req, err
	}
	return req, nil
}

// Generate checks the caller's balance, asks the inference service for an
// image and consumes a credit once the image exists.
func (s *Service) Generate(ctx context.Context, session auth.Session, req Request) (*Result, error) {
	req, err := Validate(req)
	if err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{"user_id": session.UserID, "samples": req.Samples})

	if s.ledger != nil && session.Authenticated() {
		balance, err := s.ledger.Balance(ctx, session.Token, session.UserID)
		if err != nil {
			return nil, fmt.Errorf("check balance: %w", err)
		}
		if !balance.CanGenerate {
			return nil, credits.ErrInsufficientCredits
		}
	}

	body, header, err := s.client.Fetch(ctx, http.MethodPost, "/images/generate", session.Token, req)
	if err != nil {
		log.WithError(err).Warn("image generation failed")
		if se, ok := httpclient.AsStatusError(err); ok && se.Status == http.StatusPaymentRequired {
			return nil, credits.ErrInsufficientCredits
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	result := &Result{}
	if req.Samples == 1 {
		result.Image = body
		result.ContentType = header.Get("Content-Type")
		if result.ContentType == "" {
			result.ContentType = http.DetectContentType(body)
		}
	} else if err := decodeBatch(body, result); err != nil {
		return nil, err
	}

	if s.ledger != nil && session.Authenticated() {
		usage, err := s.ledger.Use(ctx, session.Token, session.UserID, CreditsPerImage)
		if err != nil {
			// the image already exists; the caller still gets it
			log.WithError(err).Error("failed to consume credit after generation")
		} else {
			remaining := usage.RemainingCredits
			result.Remaining = &remaining
		}
	}

	log.Info("image generated")
	return result, nil
}

func decodeBatch(body []byte, result *Result) error {
	if !gjson.ValidBytes(body) {
		return ErrMalformedResponse
	}
	root := gjson.ParseBytes(body)
	if s := root.Get("success"); s.Exists() && !s.Bool() {
		return fmt.Errorf("%w: %s", ErrGenerationFailed, root.Get("error").String())
	}

	result.Images = []GeneratedImage{}
	for _, img := range root.Get("images").Array() {
		result.Images = append(result.Images, GeneratedImage{
			ID:           img.Get("id").String(),
			Seed:         img.Get("seed").Int(),
			FinishReason: img.Get("finishReason").String(),
		})
	}
	for _, saved := range root.Get("savedImages").Array() {
		result.SavedImages = append(result.SavedImages, gallery.NormalizeImage(saved))
	}
	return nil
}
