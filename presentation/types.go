// Package presentation turns entity references and entity data into display snapshots.
//
// A Renderer is a pure function of its Input. It never performs lookups and never
// mutates shared state. The resolution package decides which data is passed in and
// whether a renderer's request to load the entity is honored.
package presentation

import (
	"errors"

	"ocm.software/open-component-model/presentation/catalog"
)

// ErrUnknownVariant is returned by the default renderer for unsupported variants.
var ErrUnknownVariant = errors.New("unknown presentation variant")

// Snapshot is the rendered display data for a reference at a point in time.
// It is a value type; every render produces a new one.
type Snapshot struct {
	EntityRef      string `json:"entityRef"`
	PrimaryTitle   string `json:"primaryTitle"`
	SecondaryTitle string `json:"secondaryTitle,omitempty"`
	Icon           Icon   `json:"icon,omitempty"`
}

// Fallback is the snapshot used whenever rendering is impossible:
// the raw reference as title, no subtitle and no icon.
func Fallback(entityRef string) Snapshot {
	return Snapshot{EntityRef: entityRef, PrimaryTitle: entityRef}
}

// Variant selects how a snapshot is decorated.
type Variant string

const (
	// VariantText renders titles only.
	VariantText Variant = "text"
	// VariantIcon additionally selects an icon by kind.
	VariantIcon Variant = "icon"
)

// Context carries rendering hints supplied by the caller.
type Context struct {
	// Variant overrides the renderer's own variant when set.
	Variant Variant
	// DefaultKind is omitted from abbreviated references when it matches.
	DefaultKind string
	// DefaultNamespace is omitted from abbreviated references when it matches.
	// Empty means ref.DefaultNamespace.
	DefaultNamespace string
}

// Input is everything a renderer may look at.
type Input struct {
	EntityRef string
	// Loading is true when fresher data is about to be requested.
	Loading bool
	// Entity is nil when no data is known for the reference.
	Entity  *catalog.Entity
	Context Context
}

// Result is the outcome of a render.
type Result struct {
	Snapshot Snapshot
	// LoadEntity asks the caller to fetch entity data and render again.
	LoadEntity bool
}

// Renderer maps an Input to a Snapshot.
type Renderer interface {
	// Async reports whether the renderer wants a refresh phase at all.
	Async() bool
	Render(in Input) (Result, error)
}

// FieldDeclarer is implemented by renderers that need entity fields beyond the baseline.
type FieldDeclarer interface {
	ExtraFields() []string
}
