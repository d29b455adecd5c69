package catalog

import (
	"ocm.software/open-component-model/presentation/ref"
)

// Entity is the subset of a catalog item the presentation layer understands.
// Spec is kept free-form because its shape depends on the kind.
type Entity struct {
	APIVersion string         `json:"apiVersion,omitempty"`
	Kind       string         `json:"kind,omitempty"`
	Metadata   Metadata       `json:"metadata"`
	Spec       map[string]any `json:"spec,omitempty"`
}

// Metadata holds the identifying and descriptive fields of an entity.
type Metadata struct {
	Name        string            `json:"name,omitempty"`
	Namespace   string            `json:"namespace,omitempty"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// Ref returns the reference that identifies the entity.
// A missing namespace is reported as ref.DefaultNamespace.
func (e *Entity) Ref() ref.Ref {
	namespace := e.Metadata.Namespace
	if namespace == "" {
		namespace = ref.DefaultNamespace
	}
	return ref.Ref{Kind: e.Kind, Namespace: namespace, Name: e.Metadata.Name}
}

// SpecString walks path through e.Spec and returns the string found there.
// Missing keys and non-string values yield "".
func (e *Entity) SpecString(path ...string) string {
	if e == nil || len(path) == 0 {
		return ""
	}
	var current any = e.Spec
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current = m[key]
	}
	s, _ := current.(string)
	return s
}

// DisplayName returns spec.profile.displayName, set on users and groups.
func (e *Entity) DisplayName() string {
	return e.SpecString("profile", "displayName")
}

// Type returns spec.type.
func (e *Entity) Type() string {
	return e.SpecString("type")
}
