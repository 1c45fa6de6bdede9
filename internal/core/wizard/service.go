package wizard

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pixelprint/storefront/internal/core/auth"
	"github.com/pixelprint/storefront/internal/core/catalog"
	"github.com/pixelprint/storefront/internal/core/product"
)

type Catalog interface {
	ListBlueprints(ctx context.Context, token string) ([]catalog.Blueprint, error)
	ListProviders(ctx context.Context, token string, blueprintID int) ([]catalog.Provider, error)
	ListVariants(ctx context.Context, token string, blueprintID, providerID int) ([]catalog.Variant, error)
}

type Submitter interface {
	Submit(ctx context.Context, session auth.Session, p product.Payload) (*product.Result, error)
}

// Service runs wizard sessions against the catalog. Operations that fetch
// return the resulting snapshot even when they fail, so callers can render
// the error banner alongside the last good state.
type Service struct {
	catalog   Catalog
	submitter Submitter
	store     *Store
	handler   slog.Handler
	log       logrus.FieldLogger
}

func NewService(cat Catalog, submitter Submitter, store *Store, handler slog.Handler, log logrus.FieldLogger) *Service {
	return &Service{
		catalog:   cat,
		submitter: submitter,
		store:     store,
		handler:   handler,
		log:       log,
	}
}

// Start opens a session and loads the blueprint list. A failed load still
// returns the session so the user can retry.
func (s *Service) Start(ctx context.Context, caller auth.Session, details Details) (Snapshot, error) {
	sess, err := NewSession(caller.Owner(), details, s.handler)
	if err != nil {
		return Snapshot{}, err
	}
	s.store.Put(sess)
	s.logger(sess).Info("wizard session started")

	t, err := sess.BeginFetch(FetchBlueprints)
	if err != nil {
		return sess.Snapshot(), err
	}
	err = s.fetch(ctx, caller, sess, t)
	return sess.Snapshot(), err
}

func (s *Service) Get(caller auth.Session, id uuid.UUID) (Snapshot, error) {
	sess, err := s.store.Get(id, caller.Owner())
	if err != nil {
		return Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

func (s *Service) Cancel(caller auth.Session, id uuid.UUID) error {
	sess, err := s.store.Get(id, caller.Owner())
	if err != nil {
		return err
	}
	s.store.Delete(id)
	s.logger(sess).Info("wizard session cancelled")
	return nil
}

func (s *Service) ReloadBlueprints(ctx context.Context, caller auth.Session, id uuid.UUID) (Snapshot, error) {
	return s.reload(ctx, caller, id, FetchBlueprints)
}

func (s *Service) SelectBlueprint(ctx context.Context, caller auth.Session, id uuid.UUID, blueprintID int) (Snapshot, error) {
	sess, err := s.store.Get(id, caller.Owner())
	if err != nil {
		return Snapshot{}, err
	}
	t, err := sess.SetBlueprint(blueprintID)
	if err != nil {
		return sess.Snapshot(), err
	}
	err = s.fetch(ctx, caller, sess, t)
	return sess.Snapshot(), err
}

func (s *Service) ReloadProviders(ctx context.Context, caller auth.Session, id uuid.UUID) (Snapshot, error) {
	return s.reload(ctx, caller, id, FetchProviders)
}

func (s *Service) SelectProvider(ctx context.Context, caller auth.Session, id uuid.UUID, providerID int) (Snapshot, error) {
	sess, err := s.store.Get(id, caller.Owner())
	if err != nil {
		return Snapshot{}, err
	}
	t, err := sess.SetProvider(providerID)
	if err != nil {
		return sess.Snapshot(), err
	}
	err = s.fetch(ctx, caller, sess, t)
	return sess.Snapshot(), err
}

func (s *Service) ReloadVariants(ctx context.Context, caller auth.Session, id uuid.UUID) (Snapshot, error) {
	return s.reload(ctx, caller, id, FetchVariants)
}

func (s *Service) ToggleColor(caller auth.Session, id uuid.UUID, color string) (Snapshot, error) {
	return s.mutate(caller, id, func(sess *Session) error { return sess.ToggleColor(color) })
}

func (s *Service) ToggleVariant(caller auth.Session, id uuid.UUID, variantID int) (Snapshot, error) {
	return s.mutate(caller, id, func(sess *Session) error { return sess.ToggleVariant(variantID) })
}

func (s *Service) SetDetails(caller auth.Session, id uuid.UUID, title, description string) (Snapshot, error) {
	return s.mutate(caller, id, func(sess *Session) error {
		sess.SetDetails(title, description)
		return nil
	})
}

// Submit posts the session's payload. On success the session is discarded;
// on a backend failure the selection is kept and the error is shown on the
// session. Validation failures never reach the backend. A second Submit on
// the same session while one is running fails with ErrSubmitInProgress.
func (s *Service) Submit(ctx context.Context, caller auth.Session, id uuid.UUID) (*product.Result, Snapshot, error) {
	sess, err := s.store.Get(id, caller.Owner())
	if err != nil {
		return nil, Snapshot{}, err
	}
	if err := sess.BeginSubmit(); err != nil {
		return nil, sess.Snapshot(), err
	}

	result, err := s.submitter.Submit(ctx, caller, sess.Payload())
	if err != nil {
		sess.EndSubmit()
		var serr *product.SubmissionError
		if errors.As(err, &serr) {
			sess.SetError(serr.Message)
		}
		return nil, sess.Snapshot(), err
	}

	snap := sess.Snapshot()
	s.store.Delete(id)
	s.logger(sess).WithField("product_id", result.Product.ID).Info("wizard session submitted")
	return result, snap, nil
}

func (s *Service) mutate(caller auth.Session, id uuid.UUID, fn func(*Session) error) (Snapshot, error) {
	sess, err := s.store.Get(id, caller.Owner())
	if err != nil {
		return Snapshot{}, err
	}
	if err := fn(sess); err != nil {
		return sess.Snapshot(), err
	}
	return sess.Snapshot(), nil
}

func (s *Service) reload(ctx context.Context, caller auth.Session, id uuid.UUID, kind FetchKind) (Snapshot, error) {
	sess, err := s.store.Get(id, caller.Owner())
	if err != nil {
		return Snapshot{}, err
	}
	t, err := sess.BeginFetch(kind)
	if err != nil {
		return sess.Snapshot(), err
	}
	err = s.fetch(ctx, caller, sess, t)
	return sess.Snapshot(), err
}

// fetch runs the catalog call for t and applies or records its outcome. It
// returns the catalog error, or ErrStale when a newer selection superseded t.
func (s *Service) fetch(ctx context.Context, caller auth.Session, sess *Session, t Ticket) (err error) {
	defer func() {
		if errors.Is(err, ErrStale) {
			s.logger(sess).WithField("fetch", t.Kind).Debug("discarded stale catalog response")
		}
	}()

	var fetchErr error
	switch t.Kind {
	case FetchBlueprints:
		var blueprints []catalog.Blueprint
		blueprints, fetchErr = s.catalog.ListBlueprints(ctx, caller.Token)
		if fetchErr == nil {
			return sess.ApplyBlueprints(t, blueprints)
		}
	case FetchProviders:
		var providers []catalog.Provider
		providers, fetchErr = s.catalog.ListProviders(ctx, caller.Token, t.BlueprintID)
		if fetchErr == nil {
			return sess.ApplyProviders(t, providers)
		}
	case FetchVariants:
		var variants []catalog.Variant
		variants, fetchErr = s.catalog.ListVariants(ctx, caller.Token, t.BlueprintID, t.ProviderID)
		if fetchErr == nil {
			return sess.ApplyVariants(t, variants)
		}
	}

	if ferr := sess.FailFetch(t, fetchErr); ferr != nil {
		return ferr
	}
	return fetchErr
}

func (s *Service) logger(sess *Session) logrus.FieldLogger {
	return s.log.WithFields(logrus.Fields{
		"session_id": sess.ID().String(),
		"owner":      sess.Owner(),
	})
}
