package presentation

import (
	"errors"
	"fmt"
	"strings"

	"ocm.software/open-component-model/presentation/catalog"
	"ocm.software/open-component-model/presentation/ref"
)

// SecondaryTitleSeparator joins the parts of a secondary title.
const SecondaryTitleSeparator = " | "

// Default is the built-in renderer. It is asynchronous and always asks for entity data.
type Default struct {
	variant Variant
}

var _ Renderer = (*Default)(nil)

// NewDefault creates the default renderer for the given variant.
// An empty variant means VariantText.
func NewDefault(variant Variant) *Default {
	if variant == "" {
		variant = VariantText
	}
	return &Default{variant: variant}
}

// Async implements Renderer.
func (d *Default) Async() bool {
	return true
}

// Render implements Renderer.
func (d *Default) Render(in Input) (Result, error) {
	variant := d.variant
	if in.Context.Variant != "" {
		variant = in.Context.Variant
	}

	var p parts
	if in.Entity != nil {
		p = entityParts(in.Entity)
	} else {
		var ok bool
		if p, ok = refParts(in.EntityRef, in.Context); !ok {
			p = parts{name: in.EntityRef, raw: in.EntityRef}
		}
	}

	snapshot := present(p, in.Context)
	switch variant {
	case VariantText:
	case VariantIcon:
		snapshot.Icon = IconForKind(p.kind)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
	}

	return Result{Snapshot: snapshot, LoadEntity: true}, nil
}

// parts is the flattened view of an entity or reference used for presentation.
type parts struct {
	kind        string
	namespace   string
	name        string
	title       string
	description string
	displayName string
	typ         string
	// raw is set when the reference could not be parsed.
	raw string
	// fromEntity is set when the parts come from catalog data.
	fromEntity bool
}

func entityParts(e *catalog.Entity) parts {
	r := e.Ref()
	return parts{
		kind:        r.Kind,
		namespace:   r.Namespace,
		name:        r.Name,
		title:       e.Metadata.Title,
		description: e.Metadata.Description,
		displayName: e.DisplayName(),
		typ:         e.Type(),
		fromEntity:  true,
	}
}

func refParts(entityRef string, rctx Context) (parts, bool) {
	r, err := ref.Parse(entityRef, ref.WithDefaultKind(rctx.DefaultKind), ref.WithDefaultNamespace(rctx.DefaultNamespace))
	if err != nil {
		return parts{}, false
	}
	return parts{kind: r.Kind, namespace: r.Namespace, name: r.Name}, true
}

func present(p parts, rctx Context) Snapshot {
	if p.raw != "" {
		return Fallback(p.raw)
	}

	entityRef := ref.Ref{Kind: p.kind, Namespace: p.namespace, Name: p.name}.String()
	name := p.name
	if !p.fromEntity {
		name = shortRef(p, rctx)
	}
	primary := firstNonEmpty(p.displayName, p.title, name, entityRef)

	var secondary []string
	if entityRef != primary {
		secondary = append(secondary, entityRef)
	}
	for _, s := range []string{p.kind, p.typ, p.description} {
		if s != "" {
			secondary = append(secondary, s)
		}
	}

	return Snapshot{
		EntityRef:      entityRef,
		PrimaryTitle:   primary,
		SecondaryTitle: strings.Join(secondary, SecondaryTitleSeparator),
	}
}

// shortRef abbreviates the reference by dropping parts that match the context defaults.
func shortRef(p parts, rctx Context) string {
	defaultNamespace := rctx.DefaultNamespace
	if defaultNamespace == "" {
		defaultNamespace = ref.DefaultNamespace
	}

	result := p.name
	if p.namespace != "" && !ref.EqualFold(p.namespace, defaultNamespace) {
		result = p.namespace + "/" + result
	}
	if p.kind != "" && (rctx.DefaultKind == "" || !ref.EqualFold(p.kind, rctx.DefaultKind)) {
		result = p.kind + ":" + result
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// RenderFunc is the signature of custom render functions.
type RenderFunc func(in Input) (Result, error)

// ErrNoRenderFunc is returned by a Custom renderer without a function.
var ErrNoRenderFunc = errors.New("custom renderer has no render function")

// Custom adapts a RenderFunc to the Renderer interface.
type Custom struct {
	Fn RenderFunc
	// IsAsync enables the refresh phase for this renderer.
	IsAsync bool
	// Fields are requested from the catalog in addition to the baseline fields.
	Fields []string
}

var (
	_ Renderer      = Custom{}
	_ FieldDeclarer = Custom{}
)

// Async implements Renderer.
func (c Custom) Async() bool {
	return c.IsAsync
}

// Render implements Renderer.
func (c Custom) Render(in Input) (Result, error) {
	if c.Fn == nil {
		return Result{}, ErrNoRenderFunc
	}
	return c.Fn(in)
}

// ExtraFields implements FieldDeclarer.
func (c Custom) ExtraFields() []string {
	return c.Fields
}
