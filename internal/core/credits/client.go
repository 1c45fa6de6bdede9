package credits

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/pixelprint/storefront/internal/httpclient"
)

var ErrInsufficientCredits = errors.New("insufficient credits")

// ServiceError is a failed billing call. Message combines the `error` and
// `details` fields of the response body when present.
type ServiceError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

type Balance struct {
	UserID      string `json:"user_id"`
	Credits     int    `json:"credits"`
	CanGenerate bool   `json:"can_generate"`
}

type Usage struct {
	CreditsUsed      int  `json:"credits_used"`
	RemainingCredits int  `json:"remaining_credits"`
	CanGenerate      bool `json:"can_generate"`
}

type Package struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Credits     int     `json:"credits"`
	Price       float64 `json:"price"`
	PriceID     string  `json:"price_id"`
	Description string  `json:"description"`
}

type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type CheckoutRequest struct {
	Package string `json:"package" binding:"required"`
}

// Client talks to the billing backend that owns the credit ledger and
// payment sessions.
type Client struct {
	client *httpclient.Client
	log    logrus.FieldLogger
}

func NewClient(client *httpclient.Client, log logrus.FieldLogger) *Client {
	return &Client{client: client, log: log}
}

func (c *Client) Balance(ctx context.Context, token, userID string) (*Balance, error) {
	body, err := c.client.GetJSON(ctx, "/credits/"+url.PathEscape(userID), token)
	if err != nil {
		return nil, c.fail("Failed to fetch user credits", err)
	}

	data := gjson.GetBytes(body, "data")
	credits := int(data.Get("credits").Int())
	canGenerate := credits > 0
	if v := data.Get("canGenerate"); v.Exists() {
		canGenerate = v.Bool()
	}

	userOut := data.Get("userId").String()
	if userOut == "" {
		userOut = userID
	}
	return &Balance{UserID: userOut, Credits: credits, CanGenerate: canGenerate}, nil
}

// Use consumes amount credits. A 402 answer is ErrInsufficientCredits.
func (c *Client) Use(ctx context.Context, token, userID string, amount int) (*Usage, error) {
	if amount <= 0 {
		amount = 1
	}

	req := struct {
		UserID string `json:"userId"`
		Amount int    `json:"amount"`
	}{UserID: userID, Amount: amount}

	body, err := c.client.PostJSON(ctx, "/credits/use", token, req)
	if err != nil {
		if se, ok := httpclient.AsStatusError(err); ok && se.Status == http.StatusPaymentRequired {
			return nil, ErrInsufficientCredits
		}
		return nil, c.fail("Failed to use credits", err)
	}

	data := gjson.GetBytes(body, "data")
	return &Usage{
		CreditsUsed:      int(data.Get("creditsUsed").Int()),
		RemainingCredits: int(data.Get("remainingCredits").Int()),
		CanGenerate:      data.Get("canGenerate").Bool(),
	}, nil
}

func (c *Client) Packages(ctx context.Context, token string) ([]Package, error) {
	body, err := c.client.GetJSON(ctx, "/packages", token)
	if err != nil {
		return nil, c.fail("Failed to fetch credit packages", err)
	}

	packages := []Package{}
	for _, p := range gjson.GetBytes(body, "data").Array() {
		packages = append(packages, Package{
			ID:          p.Get("id").String(),
			Name:        p.Get("name").String(),
			Credits:     int(p.Get("credits").Int()),
			Price:       p.Get("price").Float(),
			PriceID:     p.Get("priceId").String(),
			Description: p.Get("description").String(),
		})
	}
	return packages, nil
}

func (c *Client) CreateCheckout(ctx context.Context, token, userID, pkg string) (*CheckoutSession, error) {
	req := struct {
		UserID        string `json:"userId"`
		CreditPackage string `json:"creditPackage"`
	}{UserID: userID, CreditPackage: pkg}

	body, err := c.client.PostJSON(ctx, "/payment/create-session", token, req)
	if err != nil {
		return nil, c.fail("Failed to create payment session", err)
	}

	data := gjson.GetBytes(body, "data")
	return &CheckoutSession{
		SessionID: data.Get("sessionId").String(),
		URL:       data.Get("url").String(),
	}, nil
}

func (c *Client) fail(op string, err error) error {
	serr := &ServiceError{Op: op, Message: op}
	if se, ok := httpclient.AsStatusError(err); ok {
		serr.Status = se.Status
		if gjson.ValidBytes(se.Body) {
			if msg := gjson.GetBytes(se.Body, "error").String(); msg != "" {
				serr.Message += ": " + msg
			}
			if details := gjson.GetBytes(se.Body, "details").String(); details != "" {
				serr.Message += fmt.Sprintf(" (%s)", details)
			}
		}
	}
	c.log.WithFields(logrus.Fields{"operation": op, "status": serr.Status}).WithError(err).Warn("billing call failed")
	return serr
}
