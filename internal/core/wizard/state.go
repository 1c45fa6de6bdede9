package wizard

import "errors"

// Stage is the position of a session in the configuration flow. It is
// derived from the selection after every change: the first missing choice
// determines it.
type Stage string

const (
	StageNoBlueprint     Stage = "no_blueprint"
	StageBlueprintChosen Stage = "blueprint_chosen"
	StageProviderChosen  Stage = "provider_chosen"
	StageColorsChosen    Stage = "colors_chosen"
	StageReady           Stage = "ready"
)

// stageTransitions lists the moves a single operation can cause. Picking a
// blueprint or provider is allowed from any later stage and resets it;
// removing the last color from a ready session drops straight back to
// provider_chosen.
var stageTransitions = map[string][]string{
	string(StageNoBlueprint):     {string(StageBlueprintChosen)},
	string(StageBlueprintChosen): {string(StageProviderChosen)},
	string(StageProviderChosen):  {string(StageBlueprintChosen), string(StageColorsChosen)},
	string(StageColorsChosen):    {string(StageBlueprintChosen), string(StageProviderChosen), string(StageReady)},
	string(StageReady):           {string(StageBlueprintChosen), string(StageProviderChosen), string(StageColorsChosen)},
}

// FetchKind names one of the dependent catalog fetches a session waits on.
type FetchKind string

const (
	FetchBlueprints FetchKind = "blueprints"
	FetchProviders  FetchKind = "providers"
	FetchVariants   FetchKind = "variants"
)

// Ticket identifies one catalog fetch. A response is applied only if the
// ticket is still current when it arrives.
type Ticket struct {
	Kind        FetchKind `json:"kind"`
	BlueprintID int       `json:"blueprint_id,omitempty"`
	ProviderID  int       `json:"provider_id,omitempty"`
	Generation  uint64    `json:"generation"`
}

var (
	ErrStale            = errors.New("response is stale: the selection changed while it was in flight")
	ErrNoBlueprint      = errors.New("no blueprint selected")
	ErrNoProvider       = errors.New("no provider selected")
	ErrUnknownBlueprint = errors.New("unknown blueprint")
	ErrUnknownProvider  = errors.New("unknown provider")
	ErrUnknownColor     = errors.New("unknown color")
	ErrUnknownVariant   = errors.New("unknown variant")
	ErrSessionNotFound  = errors.New("wizard session not found")
	ErrSubmitInProgress = errors.New("a submission for this session is already in progress")
)
