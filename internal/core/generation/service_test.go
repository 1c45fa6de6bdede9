package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelprint/storefront/internal/core/auth"
	"github.com/pixelprint/storefront/internal/core/credits"
	"github.com/pixelprint/storefront/internal/core/validation"
	"github.com/pixelprint/storefront/internal/httpclient"
)

type fakeLedger struct {
	balance *credits.Balance
	useErr  error
	used    int
}

func (f *fakeLedger) Balance(ctx context.Context, token, userID string) (*credits.Balance, error) {
	return f.balance, nil
}

func (f *fakeLedger) Use(ctx context.Context, token, userID string, amount int) (*credits.Usage, error) {
	if f.useErr != nil {
		return nil, f.useErr
	}
	f.used += amount
	return &credits.Usage{CreditsUsed: amount, RemainingCredits: f.balance.Credits - f.used}, nil
}

var user = auth.Session{UserID: "user-1", Token: "tok"}

func newTestService(t *testing.T, ledger Ledger, handler http.HandlerFunc) (*Service, *test.Hook, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	logger, hook := test.NewNullLogger()
	return NewService(httpclient.New(httpclient.Config{BaseURL: srv.URL}), ledger, logger), hook, calls
}

func TestValidate(t *testing.T) {
	req, err := Validate(Request{Prompt: "  a red fox  "})
	require.NoError(t, err)
	assert.Equal(t, "a red fox", req.Prompt)
	assert.Equal(t, 1, req.Samples)

	_, err = Validate(Request{Prompt: "   "})
	require.True(t, validation.IsValidationError(err))

	_, err = Validate(Request{Prompt: strings.Repeat("x", MaxPromptLength+1)})
	assert.True(t, validation.IsValidationError(err))

	_, err = Validate(Request{Prompt: "fox", Samples: MaxSamples + 1})
	assert.True(t, validation.IsValidationError(err))

	_, err = Validate(Request{Prompt: "fox", Width: 1000})
	assert.True(t, validation.IsValidationError(err))
}

func TestGenerate_SingleSampleReturnsImage(t *testing.T) {
	ledger := &fakeLedger{balance: &credits.Balance{Credits: 3, CanGenerate: true}}
	svc, _, _ := newTestService(t, ledger, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generate", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a red fox", req["prompt"])
		assert.Equal(t, float64(1), req["samples"])

		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG"))
	})

	res, err := svc.Generate(context.Background(), user, Request{Prompt: " a red fox "})
	require.NoError(t, err)
	assert.True(t, res.Raw())
	assert.Equal(t, "image/png", res.ContentType)
	assert.Equal(t, []byte("\x89PNG"), res.Image)
	assert.Equal(t, 1, ledger.used)
	require.NotNil(t, res.Remaining)
	assert.Equal(t, 2, *res.Remaining)
}

func TestGenerate_MultiSampleReturnsMetadata(t *testing.T) {
	ledger := &fakeLedger{balance: &credits.Balance{Credits: 3, CanGenerate: true}}
	svc, _, _ := newTestService(t, ledger, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"images":[{"id":"g1","seed":42,"finishReason":"SUCCESS"},{"id":"g2","seed":7,"finishReason":"SUCCESS"}],
			"savedImages":[{"image_id":"img-1","image_url":"https://cdn/1.png","status":"generated"}]}`))
	})

	res, err := svc.Generate(context.Background(), user, Request{Prompt: "fox", Samples: 2, SaveToStorage: true})
	require.NoError(t, err)
	assert.False(t, res.Raw())
	require.Len(t, res.Images, 2)
	assert.Equal(t, int64(42), res.Images[0].Seed)
	require.Len(t, res.SavedImages, 1)
	assert.Equal(t, "img-1", res.SavedImages[0].ID)
	assert.Equal(t, "https://cdn/1.png", res.SavedImages[0].URL)
}

func TestGenerate_InsufficientCreditsSkipsInference(t *testing.T) {
	ledger := &fakeLedger{balance: &credits.Balance{Credits: 0, CanGenerate: false}}
	svc, _, calls := newTestService(t, ledger, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("img"))
	})

	_, err := svc.Generate(context.Background(), user, Request{Prompt: "fox"})
	assert.True(t, errors.Is(err, credits.ErrInsufficientCredits))
	assert.Zero(t, calls.Load())
	assert.Zero(t, ledger.used)
}

func TestGenerate_InvalidPromptSkipsNetwork(t *testing.T) {
	svc, _, calls := newTestService(t, nil, func(w http.ResponseWriter, r *http.Request) {})

	_, err := svc.Generate(context.Background(), user, Request{Prompt: ""})
	assert.True(t, validation.IsValidationError(err))
	assert.Zero(t, calls.Load())
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	ledger := &fakeLedger{balance: &credits.Balance{Credits: 3, CanGenerate: true}}
	svc, _, _ := newTestService(t, ledger, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := svc.Generate(context.Background(), user, Request{Prompt: "fox"})
	assert.True(t, errors.Is(err, ErrGenerationFailed))
	assert.Zero(t, ledger.used, "no credit is consumed for a failed generation")
}

func TestGenerate_CreditFailureIsLogged(t *testing.T) {
	ledger := &fakeLedger{balance: &credits.Balance{Credits: 3, CanGenerate: true}, useErr: errors.New("ledger down")}
	svc, hook, _ := newTestService(t, ledger, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("img"))
	})

	res, err := svc.Generate(context.Background(), user, Request{Prompt: "fox"})
	require.NoError(t, err)
	assert.Nil(t, res.Remaining)

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGenerate_AnonymousSkipsLedger(t *testing.T) {
	ledger := &fakeLedger{balance: &credits.Balance{CanGenerate: false}}
	svc, _, _ := newTestService(t, ledger, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte("img"))
	})

	res, err := svc.Generate(context.Background(), auth.Anonymous(), Request{Prompt: "fox"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ContentType)
}
