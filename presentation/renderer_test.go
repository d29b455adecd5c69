package presentation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/presentation/catalog"
	"ocm.software/open-component-model/presentation/presentation"
)

func TestDefaultRenderer_WithoutEntity(t *testing.T) {
	tests := []struct {
		name      string
		entityRef string
		ctx       presentation.Context
		primary   string
		secondary string
		entityOut string
	}{
		{
			name:      "default namespace is abbreviated, kind kept",
			entityRef: "user:default/jdoe",
			ctx:       presentation.Context{DefaultNamespace: "default"},
			primary:   "user:jdoe",
			secondary: "user:default/jdoe | user",
			entityOut: "user:default/jdoe",
		},
		{
			name:      "global default namespace applies without context",
			entityRef: "user:default/jdoe",
			primary:   "user:jdoe",
			secondary: "user:default/jdoe | user",
			entityOut: "user:default/jdoe",
		},
		{
			name:      "matching default kind is abbreviated case-insensitively",
			entityRef: "User:Default/jdoe",
			ctx:       presentation.Context{DefaultKind: "user"},
			primary:   "jdoe",
			secondary: "User:Default/jdoe | User",
			entityOut: "User:Default/jdoe",
		},
		{
			name:      "foreign namespace is kept",
			entityRef: "component:payments/checkout",
			ctx:       presentation.Context{DefaultKind: "component"},
			primary:   "payments/checkout",
			secondary: "component:payments/checkout | component",
			entityOut: "component:payments/checkout",
		},
		{
			name:      "context default namespace replaces the global one",
			entityRef: "component:payments/checkout",
			ctx:       presentation.Context{DefaultKind: "component", DefaultNamespace: "Payments"},
			primary:   "checkout",
			secondary: "component:payments/checkout | component",
			entityOut: "component:payments/checkout",
		},
		{
			name:      "unparseable reference renders raw",
			entityRef: "not a ref",
			primary:   "not a ref",
			entityOut: "not a ref",
		},
	}

	renderer := presentation.NewDefault(presentation.VariantText)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := renderer.Render(presentation.Input{EntityRef: tc.entityRef, Loading: true, Context: tc.ctx})
			require.NoError(t, err)
			assert.True(t, result.LoadEntity)
			assert.Equal(t, tc.primary, result.Snapshot.PrimaryTitle)
			assert.Equal(t, tc.secondary, result.Snapshot.SecondaryTitle)
			assert.Equal(t, tc.entityOut, result.Snapshot.EntityRef)
			assert.Empty(t, result.Snapshot.Icon)
		})
	}
}

func TestDefaultRenderer_WithEntity(t *testing.T) {
	t.Run("display name wins", func(t *testing.T) {
		entity := &catalog.Entity{
			Metadata: catalog.Metadata{Name: "team-a"},
			Spec:     map[string]any{"profile": map[string]any{"displayName": "Team Alpha"}},
		}
		result, err := presentation.NewDefault("").Render(presentation.Input{EntityRef: "group:default/team-a", Entity: entity})
		require.NoError(t, err)
		assert.Equal(t, "Team Alpha", result.Snapshot.PrimaryTitle)
	})

	t.Run("title before name", func(t *testing.T) {
		entity := &catalog.Entity{
			Kind:     "Component",
			Metadata: catalog.Metadata{Name: "checkout", Title: "Checkout Service", Description: "Takes the money"},
			Spec:     map[string]any{"type": "service"},
		}
		result, err := presentation.NewDefault(presentation.VariantText).Render(presentation.Input{Entity: entity})
		require.NoError(t, err)
		assert.Equal(t, "Checkout Service", result.Snapshot.PrimaryTitle)
		assert.Equal(t, "Component:default/checkout | Component | service | Takes the money", result.Snapshot.SecondaryTitle)
		assert.Equal(t, "Component:default/checkout", result.Snapshot.EntityRef)
	})

	t.Run("name field without title", func(t *testing.T) {
		entity := &catalog.Entity{Kind: "Component", Metadata: catalog.Metadata{Name: "checkout"}}
		result, err := presentation.NewDefault(presentation.VariantText).Render(presentation.Input{Entity: entity})
		require.NoError(t, err)
		assert.Equal(t, "checkout", result.Snapshot.PrimaryTitle)
		assert.Equal(t, "Component:default/checkout | Component", result.Snapshot.SecondaryTitle)
	})

	t.Run("name field ignores context defaults", func(t *testing.T) {
		entity := &catalog.Entity{Kind: "Group", Metadata: catalog.Metadata{Name: "ops", Namespace: "infra"}}
		result, err := presentation.NewDefault(presentation.VariantText).Render(presentation.Input{
			Entity:  entity,
			Context: presentation.Context{DefaultKind: "component", DefaultNamespace: "payments"},
		})
		require.NoError(t, err)
		assert.Equal(t, "ops", result.Snapshot.PrimaryTitle)
		assert.Equal(t, "Group:infra/ops | Group", result.Snapshot.SecondaryTitle)
	})

	t.Run("secondary omits reference equal to primary", func(t *testing.T) {
		entity := &catalog.Entity{Metadata: catalog.Metadata{Name: "x", Namespace: "other", Title: "other/x"}}
		result, err := presentation.NewDefault(presentation.VariantText).Render(presentation.Input{Entity: entity})
		require.NoError(t, err)
		assert.Equal(t, "other/x", result.Snapshot.PrimaryTitle)
		assert.Empty(t, result.Snapshot.SecondaryTitle)
	})
}

func TestDefaultRenderer_Icons(t *testing.T) {
	renderer := presentation.NewDefault(presentation.VariantIcon)

	result, err := renderer.Render(presentation.Input{EntityRef: "API:default/petstore"})
	require.NoError(t, err)
	assert.Equal(t, presentation.IconAPI, result.Snapshot.Icon)

	result, err = renderer.Render(presentation.Input{EntityRef: "widget:default/thing"})
	require.NoError(t, err)
	assert.Equal(t, presentation.IconUnknown, result.Snapshot.Icon)

	result, err = renderer.Render(presentation.Input{EntityRef: "garbage"})
	require.NoError(t, err)
	assert.Equal(t, presentation.IconUnknown, result.Snapshot.Icon)

	// the context variant overrides the renderer variant
	result, err = renderer.Render(presentation.Input{
		EntityRef: "user:default/jdoe",
		Context:   presentation.Context{Variant: presentation.VariantText},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Snapshot.Icon)
}

func TestDefaultRenderer_UnknownVariant(t *testing.T) {
	_, err := presentation.NewDefault("sparkles").Render(presentation.Input{EntityRef: "user:default/jdoe"})
	assert.True(t, errors.Is(err, presentation.ErrUnknownVariant))
}

func TestIconForKind(t *testing.T) {
	assert.Equal(t, presentation.IconUser, presentation.IconForKind("USER"))
	assert.Equal(t, presentation.IconGroup, presentation.IconForKind("Group"))
	assert.Equal(t, presentation.IconUnknown, presentation.IconForKind(""))
}

func TestCustomRenderer(t *testing.T) {
	custom := presentation.Custom{
		Fn: func(in presentation.Input) (presentation.Result, error) {
			return presentation.Result{Snapshot: presentation.Snapshot{EntityRef: in.EntityRef, PrimaryTitle: "custom"}}, nil
		},
		IsAsync: true,
		Fields:  []string{"metadata.annotations"},
	}
	result, err := custom.Render(presentation.Input{EntityRef: "user:default/jdoe"})
	require.NoError(t, err)
	assert.Equal(t, "custom", result.Snapshot.PrimaryTitle)
	assert.True(t, custom.Async())
	assert.Equal(t, []string{"metadata.annotations"}, custom.ExtraFields())

	_, err = presentation.Custom{}.Render(presentation.Input{})
	assert.ErrorIs(t, err, presentation.ErrNoRenderFunc)
}

func TestFallback(t *testing.T) {
	assert.Equal(t, presentation.Snapshot{EntityRef: "x", PrimaryTitle: "x"}, presentation.Fallback("x"))
}
