package wizard

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robbyt/go-fsm"

	"github.com/pixelprint/storefront/internal/core/catalog"
	"github.com/pixelprint/storefront/internal/core/product"
	"github.com/pixelprint/storefront/internal/metrics"
)

// Details are the free-text parts of the product and the image it is made
// from. They are validated only at submission.
type Details struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	ImageID     string `json:"image_id,omitempty"`
}

// Session is one product configuration in progress. All methods are safe for
// concurrent use; catalog fetches happen outside the lock and are reconciled
// through tickets.
type Session struct {
	mu sync.Mutex

	id      uuid.UUID
	owner   string
	machine *fsm.Machine

	blueprints []catalog.Blueprint
	blueprint  *catalog.Blueprint
	providers  []catalog.Provider
	provider   *catalog.Provider
	variants   []catalog.Variant
	index      *catalog.Index

	colors   map[string]struct{}
	selected map[int]struct{}

	details Details

	generation map[FetchKind]uint64
	loading    map[FetchKind]bool
	errMsg     string
	submitting bool

	createdAt time.Time
	updatedAt time.Time
}

// NewSession creates an empty session owned by owner (empty for anonymous
// callers). handler receives stage transition logs; nil discards them.
func NewSession(owner string, details Details, handler slog.Handler) (*Session, error) {
	if handler == nil {
		handler = slog.NewTextHandler(io.Discard, nil)
	}
	machine, err := fsm.New(handler, string(StageNoBlueprint), stageTransitions)
	if err != nil {
		return nil, fmt.Errorf("create stage machine: %w", err)
	}

	now := time.Now()
	return &Session{
		id:         uuid.New(),
		owner:      owner,
		machine:    machine,
		blueprints: []catalog.Blueprint{},
		providers:  []catalog.Provider{},
		variants:   []catalog.Variant{},
		index:      catalog.BuildIndex(nil),
		colors:     make(map[string]struct{}),
		selected:   make(map[int]struct{}),
		details:    details,
		generation: make(map[FetchKind]uint64),
		loading:    make(map[FetchKind]bool),
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) Owner() string { return s.owner }

func (s *Session) Stage() Stage {
	return Stage(s.machine.GetState())
}

func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// BeginFetch issues a ticket for re-fetching kind with the current selection.
// Any earlier ticket of the same kind becomes stale.
func (s *Session) BeginFetch(kind FetchKind) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case FetchProviders:
		if s.blueprint == nil {
			return Ticket{}, ErrNoBlueprint
		}
	case FetchVariants:
		if s.provider == nil {
			return Ticket{}, ErrNoProvider
		}
	}

	s.errMsg = ""
	s.touch()
	return s.issue(kind), nil
}

// SetBlueprint picks a blueprint from the loaded list and resets everything
// downstream of it. The returned ticket is for the provider fetch.
func (s *Session) SetBlueprint(id int) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var picked *catalog.Blueprint
	for i := range s.blueprints {
		if s.blueprints[i].ID == id {
			bp := s.blueprints[i]
			picked = &bp
			break
		}
	}
	if picked == nil {
		return Ticket{}, fmt.Errorf("%w: %d", ErrUnknownBlueprint, id)
	}

	s.blueprint = picked
	s.provider = nil
	s.providers = []catalog.Provider{}
	s.resetVariants()
	s.invalidate(FetchVariants)
	s.errMsg = ""

	if err := s.sync(); err != nil {
		return Ticket{}, err
	}
	s.touch()
	return s.issue(FetchProviders), nil
}

// SetProvider picks a provider from the loaded list and resets the variant
// list and selection. The returned ticket is for the variant fetch.
func (s *Session) SetProvider(id int) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blueprint == nil {
		return Ticket{}, ErrNoBlueprint
	}

	var picked *catalog.Provider
	for i := range s.providers {
		if s.providers[i].ID == id {
			p := s.providers[i]
			picked = &p
			break
		}
	}
	if picked == nil {
		return Ticket{}, fmt.Errorf("%w: %d", ErrUnknownProvider, id)
	}

	s.provider = picked
	s.resetVariants()
	s.errMsg = ""

	if err := s.sync(); err != nil {
		return Ticket{}, err
	}
	s.touch()
	return s.issue(FetchVariants), nil
}

func (s *Session) ApplyBlueprints(t Ticket, blueprints []catalog.Blueprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.accept(t, FetchBlueprints); err != nil {
		return err
	}
	s.blueprints = append([]catalog.Blueprint{}, blueprints...)
	s.touch()
	return nil
}

func (s *Session) ApplyProviders(t Ticket, providers []catalog.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.accept(t, FetchProviders); err != nil {
		return err
	}
	s.providers = append([]catalog.Provider{}, providers...)
	s.touch()
	return nil
}

// ApplyVariants installs a fetched variant list. Any previous color or
// variant choice is cleared since it may not exist in the new list.
func (s *Session) ApplyVariants(t Ticket, variants []catalog.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.accept(t, FetchVariants); err != nil {
		return err
	}
	s.variants = append([]catalog.Variant{}, variants...)
	s.index = catalog.BuildIndex(s.variants)
	s.colors = make(map[string]struct{})
	s.selected = make(map[int]struct{})
	if err := s.sync(); err != nil {
		return err
	}
	s.touch()
	return nil
}

// FailFetch records a failed fetch. Already loaded data is left intact so
// the user can retry the same step.
func (s *Session) FailFetch(t Ticket, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.accept(t, t.Kind); err != nil {
		return err
	}
	s.errMsg = fmt.Sprintf("could not load %s: %v", t.Kind, cause)
	s.touch()
	return nil
}

// ToggleColor adds color to the chosen colors, or removes it together with
// every chosen variant of that color.
func (s *Session) ToggleColor(color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provider == nil {
		return ErrNoProvider
	}
	if !s.index.HasColor(color) {
		return fmt.Errorf("%w: %q", ErrUnknownColor, color)
	}

	if _, chosen := s.colors[color]; chosen {
		delete(s.colors, color)
		for _, v := range s.index.Variants(color) {
			delete(s.selected, v.ID)
		}
	} else {
		s.colors[color] = struct{}{}
	}
	s.errMsg = ""

	if err := s.sync(); err != nil {
		return err
	}
	s.touch()
	return nil
}

// ToggleVariant flips the selection of one variant. Variants that are
// unavailable or whose color is not chosen are left untouched.
func (s *Session) ToggleVariant(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provider == nil {
		return ErrNoProvider
	}
	v, ok := s.index.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownVariant, id)
	}
	s.errMsg = ""

	if _, chosen := s.colors[v.Color]; !chosen || !v.Available {
		return nil
	}

	if _, sel := s.selected[id]; sel {
		delete(s.selected, id)
	} else {
		s.selected[id] = struct{}{}
	}

	if err := s.sync(); err != nil {
		return err
	}
	s.touch()
	return nil
}

// SetDetails replaces title and description. The image reference is fixed at
// creation.
func (s *Session) SetDetails(title, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.details.Title = title
	s.details.Description = description
	s.errMsg = ""
	s.touch()
}

// BeginSubmit claims the session for a submission. Only one claim can be
// held at a time; EndSubmit releases it.
func (s *Session) BeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return ErrSubmitInProgress
	}
	s.submitting = true
	return nil
}

func (s *Session) EndSubmit() {
	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

// SetError shows msg until the next operation.
func (s *Session) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = msg
	s.touch()
}

// Payload assembles the submission payload. Variant ids follow the order of
// the fetched variant list.
func (s *Session) Payload() product.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := product.Payload{
		Title:       s.details.Title,
		Description: s.details.Description,
		ImageURL:    s.details.ImageURL,
		ImageID:     s.details.ImageID,
		VariantIDs:  s.selectedInOrder(),
	}
	if s.blueprint != nil {
		p.BlueprintID = s.blueprint.ID
	}
	if s.provider != nil {
		p.PrintProviderID = s.provider.ID
	}
	return p
}

func (s *Session) selectedInOrder() []int {
	ids := make([]int, 0, len(s.selected))
	for _, v := range s.variants {
		if _, ok := s.selected[v.ID]; ok {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

func (s *Session) resetVariants() {
	s.variants = []catalog.Variant{}
	s.index = catalog.BuildIndex(nil)
	s.colors = make(map[string]struct{})
	s.selected = make(map[int]struct{})
}

// invalidate makes outstanding tickets of kind stale without issuing a new
// one.
func (s *Session) invalidate(kind FetchKind) {
	s.generation[kind]++
	s.loading[kind] = false
}

func (s *Session) issue(kind FetchKind) Ticket {
	s.generation[kind]++
	s.loading[kind] = true

	t := Ticket{Kind: kind, Generation: s.generation[kind]}
	if s.blueprint != nil && kind != FetchBlueprints {
		t.BlueprintID = s.blueprint.ID
	}
	if s.provider != nil && kind == FetchVariants {
		t.ProviderID = s.provider.ID
	}
	return t
}

// accept reports whether t still matches the session. Callers hold the lock.
func (s *Session) accept(t Ticket, kind FetchKind) error {
	current := t.Kind == kind && t.Generation == s.generation[kind]
	switch kind {
	case FetchProviders:
		current = current && s.blueprint != nil && s.blueprint.ID == t.BlueprintID
	case FetchVariants:
		current = current && s.blueprint != nil && s.blueprint.ID == t.BlueprintID &&
			s.provider != nil && s.provider.ID == t.ProviderID
	}
	if !current {
		metrics.RecordStaleResponse(string(kind))
		return ErrStale
	}
	s.loading[kind] = false
	return nil
}

func (s *Session) derive() Stage {
	switch {
	case s.blueprint == nil:
		return StageNoBlueprint
	case s.provider == nil:
		return StageBlueprintChosen
	case len(s.colors) == 0:
		return StageProviderChosen
	case len(s.selected) == 0:
		return StageColorsChosen
	default:
		return StageReady
	}
}

// sync moves the stage machine to the derived stage. Callers hold the lock.
func (s *Session) sync() error {
	target := string(s.derive())
	if s.machine.GetState() == target {
		return nil
	}
	if err := s.machine.Transition(target); err != nil {
		return fmt.Errorf("stage %s -> %s: %w", s.machine.GetState(), target, err)
	}
	return nil
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}

// Snapshot is a point-in-time copy of a session, safe to serialize.
type Snapshot struct {
	ID                 string               `json:"id"`
	Stage              Stage                `json:"stage"`
	Blueprints         []catalog.Blueprint  `json:"blueprints"`
	Blueprint          *catalog.Blueprint   `json:"blueprint,omitempty"`
	Providers          []catalog.Provider   `json:"providers"`
	Provider           *catalog.Provider    `json:"provider,omitempty"`
	Colors             []catalog.ColorGroup `json:"colors"`
	SelectedColors     []string             `json:"selected_colors"`
	SelectedVariantIDs []int                `json:"selected_variant_ids"`
	Details            Details              `json:"details"`
	Loading            []FetchKind          `json:"loading,omitempty"`
	Error              string               `json:"error,omitempty"`
	Submitting         bool                 `json:"submitting,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:                 s.id.String(),
		Stage:              Stage(s.machine.GetState()),
		Blueprints:         append([]catalog.Blueprint{}, s.blueprints...),
		Providers:          append([]catalog.Provider{}, s.providers...),
		Colors:             s.index.Groups(),
		SelectedColors:     []string{},
		SelectedVariantIDs: s.selectedInOrder(),
		Details:            s.details,
		Error:              s.errMsg,
		Submitting:         s.submitting,
		CreatedAt:          s.createdAt,
		UpdatedAt:          s.updatedAt,
	}
	if s.blueprint != nil {
		bp := *s.blueprint
		snap.Blueprint = &bp
	}
	if s.provider != nil {
		p := *s.provider
		snap.Provider = &p
	}
	for _, c := range s.index.Colors() {
		if _, ok := s.colors[c]; ok {
			snap.SelectedColors = append(snap.SelectedColors, c)
		}
	}
	for _, kind := range []FetchKind{FetchBlueprints, FetchProviders, FetchVariants} {
		if s.loading[kind] {
			snap.Loading = append(snap.Loading, kind)
		}
	}
	return snap
}
