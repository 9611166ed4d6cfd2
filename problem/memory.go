package problem

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/skillupx/skillupx/wrapper"
)

//go:embed catalog.yaml
var defaultCatalog string

type catalogFile struct {
	Problems []Problem `yaml:"problems"`
}

// DecodeCatalog reads a YAML catalog with a top-level "problems" list. Every
// problem is validated and ids must be unique.
func DecodeCatalog(r io.Reader) ([]Problem, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Problems))
	for _, p := range file.Problems {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidProblem, p.ID)
		}
		seen[p.ID] = true
	}
	return file.Problems, nil
}

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	problems map[string]Problem
	byName   map[string]string
	mu       sync.RWMutex
}

var (
	_ Store            = (*MemoryStore)(nil)
	_ wrapper.Resolver = (*MemoryStore)(nil)
)

// NewMemoryStore returns a store holding problems.
func NewMemoryStore(problems ...Problem) *MemoryStore {
	s := &MemoryStore{
		problems: make(map[string]Problem),
		byName:   make(map[string]string),
	}
	for _, p := range problems {
		s.put(p)
	}
	return s
}

// LoadCatalog decodes a YAML catalog into a new MemoryStore.
func LoadCatalog(r io.Reader) (*MemoryStore, error) {
	problems, err := DecodeCatalog(r)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(problems...), nil
}

// Default returns a store loaded with the built-in catalog.
func Default() (*MemoryStore, error) {
	return LoadCatalog(strings.NewReader(defaultCatalog))
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Problem, error) {
	s.mu.RLock()
	p, ok := s.problems[id]
	s.mu.RUnlock()

	if !ok {
		return Problem{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return p, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Problem, error) {
	s.mu.RLock()
	out := make([]Problem, 0, len(s.problems))
	for _, p := range s.problems {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Put(ctx context.Context, p Problem) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.put(p)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) put(p Problem) {
	old, replaced := s.problems[p.ID]
	s.problems[p.ID] = p
	s.byName[p.FunctionName()] = p.ID

	name := old.FunctionName()
	if !replaced || name == p.FunctionName() || s.byName[name] != p.ID {
		return
	}
	// Hand the old name to another problem that still defines it, if any.
	delete(s.byName, name)
	for id, other := range s.problems {
		if other.FunctionName() == name && (s.byName[name] == "" || id < s.byName[name]) {
			s.byName[name] = id
		}
	}
}

// Resolve finds a problem by the function name submissions define.
func (s *MemoryStore) Resolve(functionName string) (wrapper.ProblemSpec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[functionName]
	if !ok {
		return wrapper.ProblemSpec{}, false
	}
	return s.problems[id].Spec(), true
}
