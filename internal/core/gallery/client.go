package gallery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/pixelprint/storefront/internal/core/validation"
	"github.com/pixelprint/storefront/internal/httpclient"
)

var (
	ErrNotFound          = errors.New("image not found")
	ErrMalformedResponse = errors.New("malformed image service response")
)

// Client talks to the image service that stores generated images.
type Client struct {
	client *httpclient.Client
	log    logrus.FieldLogger
}

func NewClient(client *httpclient.Client, log logrus.FieldLogger) *Client {
	return &Client{client: client, log: log}
}

// List returns one page of the caller's images. Out of range page and limit
// values are clamped to the defaults.
func (c *Client) List(ctx context.Context, token string, page, limit int) (*Page, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("limit", fmt.Sprint(limit))

	body, err := c.client.GetJSON(ctx, "/images/user?"+q.Encode(), token)
	if err != nil {
		return nil, c.wrap("list images", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse
	}

	root := gjson.ParseBytes(body)
	data := root.Get("data")
	if !data.Exists() {
		data = root
	}

	result := &Page{
		Images: []Image{},
		Total:  int(data.Get("total").Int()),
		Page:   page,
		Limit:  limit,
	}
	if p := data.Get("page"); p.Exists() {
		result.Page = int(p.Int())
	}
	if l := data.Get("limit"); l.Exists() && l.Int() > 0 {
		result.Limit = int(l.Int())
	}
	for _, item := range data.Get("images").Array() {
		result.Images = append(result.Images, NormalizeImage(item))
	}
	if result.Total < len(result.Images) {
		result.Total = len(result.Images)
	}
	result.TotalPages = (result.Total + result.Limit - 1) / result.Limit
	return result, nil
}

func (c *Client) Get(ctx context.Context, token, id string) (*Image, error) {
	body, err := c.client.GetJSON(ctx, "/images/"+url.PathEscape(id), token)
	if err != nil {
		return nil, c.wrap("get image", err)
	}
	return decodeImage(body)
}

func (c *Client) Delete(ctx context.Context, token, id string) error {
	if _, err := c.client.DeleteJSON(ctx, "/images/"+url.PathEscape(id), token); err != nil {
		return c.wrap("delete image", err)
	}
	return nil
}

// UpdateStatus moves an image to status. Unknown statuses are rejected
// locally.
func (c *Client) UpdateStatus(ctx context.Context, token, id string, status Status) (*Image, error) {
	if !status.Valid() {
		return nil, validation.Field("status", fmt.Sprintf("unknown status %q", status))
	}

	body, err := c.client.PatchJSON(ctx, "/images/"+url.PathEscape(id)+"/status", token, UpdateStatusRequest{Status: status})
	if err != nil {
		return nil, c.wrap("update image status", err)
	}

	img, err := decodeImage(body)
	if err != nil {
		return nil, err
	}
	if img.ID == "" {
		img.ID = id
	}
	if img.Status == "" {
		img.Status = status
	}
	return img, nil
}

func (c *Client) wrap(op string, err error) error {
	if se, ok := httpclient.AsStatusError(err); ok && se.Status == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	c.log.WithField("operation", op).WithError(err).Warn("image service call failed")
	return fmt.Errorf("%s: %w", op, err)
}

func decodeImage(body []byte) (*Image, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse
	}
	root := gjson.ParseBytes(body)
	data := root.Get("data")
	if !data.IsObject() {
		data = root
	}
	img := NormalizeImage(data)
	return &img, nil
}

// NormalizeImage accepts both the snake_case shape of the image service and
// plain id/url keys.
func NormalizeImage(r gjson.Result) Image {
	img := Image{
		ID:     first(r, "image_id", "id", "_id"),
		UserID: first(r, "user_id", "userId"),
		Prompt: first(r, "prompt"),
		URL:    first(r, "image_url", "imageUrl", "url"),
		Status: Status(first(r, "status")),
	}
	if ts := first(r, "created_at", "createdAt"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			img.CreatedAt = t
		}
	}
	if m, ok := r.Get("metadata").Value().(map[string]interface{}); ok {
		img.Metadata = m
	}
	return img
}

func first(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.Type != gjson.Null {
			return v.String()
		}
	}
	return ""
}
