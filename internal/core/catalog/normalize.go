package catalog

import (
	"errors"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrMalformedResponse is returned when a response body is not valid JSON.
var ErrMalformedResponse = errors.New("malformed catalog response")

// The fulfillment backend does not hold a stable schema: field names drift
// between camelCase, snake_case and nested option objects. Each Normalize*
// function maps one response type onto the fixed model above using ordered
// fallbacks (first present, non-null path wins, otherwise the default).

// records unwraps a list response: the `data` array when present, otherwise
// a top-level array, otherwise an empty list.
func records(body []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse
	}
	root := gjson.ParseBytes(body)
	if data := root.Get("data"); data.IsArray() {
		return data.Array(), nil
	}
	if root.IsArray() {
		return root.Array(), nil
	}
	return nil, nil
}

func firstString(r gjson.Result, def string, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.Type != gjson.Null {
			return strings.TrimSpace(v.String())
		}
	}
	return def
}

func firstBool(r gjson.Result, def bool, paths ...string) bool {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.Type != gjson.Null {
			return v.Bool()
		}
	}
	return def
}

// NormalizeBlueprints maps a blueprint list.
//
//	title:  title, else name, else ""
//	images: string entries of images, else images[].src
func NormalizeBlueprints(body []byte) ([]Blueprint, error) {
	items, err := records(body)
	if err != nil {
		return nil, err
	}

	blueprints := make([]Blueprint, 0, len(items))
	for _, item := range items {
		id := item.Get("id").Int()
		if id <= 0 {
			continue
		}
		blueprints = append(blueprints, Blueprint{
			ID:          int(id),
			Title:       firstString(item, "", "title", "name"),
			Brand:       firstString(item, "", "brand"),
			Model:       firstString(item, "", "model"),
			Description: firstString(item, "", "description"),
			Images:      normalizeImages(item.Get("images")),
		})
	}
	return blueprints, nil
}

func normalizeImages(images gjson.Result) []string {
	out := []string{}
	for _, img := range images.Array() {
		var src string
		if img.Type == gjson.String {
			src = img.String()
		} else {
			src = firstString(img, "", "src", "url")
		}
		if src != "" {
			out = append(out, src)
		}
	}
	return out
}

// NormalizeProviders maps a provider list.
//
//	title:       title, else name, else ""
//	description: description, else location.country, else ""
func NormalizeProviders(body []byte) ([]Provider, error) {
	items, err := records(body)
	if err != nil {
		return nil, err
	}

	providers := make([]Provider, 0, len(items))
	for _, item := range items {
		id := item.Get("id").Int()
		if id <= 0 {
			continue
		}
		providers = append(providers, Provider{
			ID:          int(id),
			Title:       firstString(item, "", "title", "name"),
			Description: firstString(item, "", "description", "location.country"),
		})
	}
	return providers, nil
}

// NormalizeVariants maps a variant list.
//
//	color:     color, else options.color, else ""
//	size:      size, else options.size, else ""
//	available: isAvailable, else is_available, else is_enabled, else true
//	title:     displayName, else title, else "<color> / <size>"
//
// Records without a positive id are dropped since they cannot be selected.
func NormalizeVariants(body []byte) ([]Variant, error) {
	items, err := records(body)
	if err != nil {
		return nil, err
	}

	variants := make([]Variant, 0, len(items))
	for _, item := range items {
		id := item.Get("id").Int()
		if id <= 0 {
			continue
		}
		v := Variant{
			ID:        int(id),
			Color:     firstString(item, "", "color", "options.color"),
			Size:      firstString(item, "", "size", "options.size"),
			Available: firstBool(item, true, "isAvailable", "is_available", "is_enabled"),
		}
		v.Title = firstString(item, defaultVariantTitle(v), "displayName", "title")
		variants = append(variants, v)
	}
	return variants, nil
}

func defaultVariantTitle(v Variant) string {
	parts := make([]string, 0, 2)
	if v.Color != "" {
		parts = append(parts, v.Color)
	}
	if v.Size != "" {
		parts = append(parts, v.Size)
	}
	return strings.Join(parts, " / ")
}

// NormalizeCreateProductResult maps the product creation envelope.
//
//	success: success, else true when data.id is present
//	message: message, else error, else ""
//	id:      data.id as a string (numeric ids are kept verbatim)
func NormalizeCreateProductResult(body []byte) (*CreateProductResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse
	}
	root := gjson.ParseBytes(body)
	data := root.Get("data")

	result := &CreateProductResult{
		Success: firstBool(root, data.Get("id").Exists(), "success"),
		Message: firstString(root, "", "message", "error"),
	}

	if data.IsObject() && data.Get("id").Exists() {
		product := &CreatedProduct{
			ID:              data.Get("id").String(),
			Title:           firstString(data, "", "title"),
			Description:     firstString(data, "", "description"),
			BlueprintID:     int(data.Get("blueprintId").Int()),
			PrintProviderID: int(data.Get("printProviderId").Int()),
		}
		if product.BlueprintID == 0 {
			product.BlueprintID = int(data.Get("blueprint_id").Int())
		}
		if product.PrintProviderID == 0 {
			product.PrintProviderID = int(data.Get("print_provider_id").Int())
		}
		if ts := firstString(data, "", "createdAt", "created_at"); ts != "" {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				product.CreatedAt = &t
			}
		}
		result.Product = product
	}

	return result, nil
}
