package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"sigs.k8s.io/yaml"

	"ocm.software/open-component-model/presentation/ref"
)

// Static is an in-memory Client backed by a fixed set of entities.
// Lookups are case-insensitive and honor field projection.
type Static struct {
	mu       sync.RWMutex
	entities map[string]*Entity
}

var _ Client = (*Static)(nil)

// NewStatic creates a Static catalog holding the given entities.
func NewStatic(entities ...*Entity) *Static {
	s := &Static{entities: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		s.Add(e)
	}
	return s
}

// Add stores e, replacing any entity with the same reference.
func (s *Static) Add(e *Entity) {
	if e == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.Ref().Canonical()] = e
}

// Len returns the number of stored entities.
func (s *Static) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// GetEntitiesByRefs implements Client.
func (s *Static) GetEntitiesByRefs(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*Entity, len(req.EntityRefs))
	for i, raw := range req.EntityRefs {
		r, err := ref.Parse(raw)
		if err != nil {
			continue
		}
		e, ok := s.entities[r.Canonical()]
		if !ok {
			continue
		}
		projected, err := Project(e, req.Fields)
		if err != nil {
			return nil, fmt.Errorf("failed to project entity %q: %w", raw, err)
		}
		items[i] = projected
	}
	return &Response{Items: items}, nil
}

// Project returns a copy of e that only carries the given dotted field paths.
// An empty field list copies the whole entity.
func Project(e *Entity, fields []string) (*Entity, error) {
	if e == nil {
		return nil, nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	if len(fields) > 0 {
		var full map[string]any
		if err := json.Unmarshal(data, &full); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
		}
		out := map[string]any{}
		for _, field := range fields {
			copyPath(full, out, strings.Split(field, "."))
		}
		if data, err = json.Marshal(out); err != nil {
			return nil, fmt.Errorf("failed to marshal projected entity: %w", err)
		}
	}
	projected := &Entity{}
	if err := json.Unmarshal(data, projected); err != nil {
		return nil, fmt.Errorf("failed to unmarshal projected entity: %w", err)
	}
	return projected, nil
}

func copyPath(src, dst map[string]any, path []string) {
	value, ok := src[path[0]]
	if !ok {
		return
	}
	if len(path) == 1 {
		dst[path[0]] = value
		return
	}
	nested, ok := value.(map[string]any)
	if !ok {
		return
	}
	target, ok := dst[path[0]].(map[string]any)
	if !ok {
		target = map[string]any{}
		dst[path[0]] = target
	}
	copyPath(nested, target, path[1:])
}

// File is the on-disk layout of a static catalog.
type File struct {
	Entities []*Entity `json:"entities"`
}

// LoadFile reads a YAML or JSON catalog file into a Static catalog.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %q: %w", path, err)
	}
	return Decode(data)
}

// Decode parses YAML or JSON catalog data into a Static catalog.
func Decode(data []byte) (*Static, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	for i, e := range file.Entities {
		if e == nil || e.Kind == "" || e.Metadata.Name == "" {
			return nil, fmt.Errorf("catalog entity at index %d must have a kind and metadata.name", i)
		}
	}
	return NewStatic(file.Entities...), nil
}
