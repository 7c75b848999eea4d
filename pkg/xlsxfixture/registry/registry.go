// Package registry resolves model identifiers ("<app>.<Name>") to model
// descriptors.
package registry

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownModel indicates an identifier that names no registered model.
	ErrUnknownModel = errors.New("unknown model")
	// ErrMalformedIdentifier indicates an identifier not of the form
	// "<app>.<Name>".
	ErrMalformedIdentifier = errors.New("malformed model identifier")
)

// Registry is an in-memory set of models. Lookups ignore the case of the
// type name, like the app registry of an ORM.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*models.Model
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{models: make(map[string]*models.Model)}
}

func key(app, name string) string {
	return app + "." + strings.ToLower(name)
}

// Register adds models and resolves relation targets. A model without a
// leading identifier field gets an implicit "id".
func (r *Registry) Register(ms ...*models.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range ms {
		if m.App == "" || m.Name == "" {
			return errors.Wrapf(ErrMalformedIdentifier, "model %q", m.Label())
		}
		k := key(m.App, m.Name)
		if _, exists := r.models[k]; exists {
			return errors.Errorf("model %s registered twice", m.Label())
		}
		if err := validate(m); err != nil {
			return err
		}
		if m.PK() == nil {
			m.Fields = append([]*models.Field{{Name: "id", Kind: models.KindIdentifier}}, m.Fields...)
		}
		r.models[k] = m
	}
	return r.link()
}

func validate(m *models.Model) error {
	seen := make(map[string]bool, len(m.Fields))
	for i, f := range m.Fields {
		if f.Name == "" {
			return errors.Errorf("model %s: field %d has no name", m.Label(), i+1)
		}
		if seen[f.Name] {
			return errors.Errorf("model %s: duplicate field %q", m.Label(), f.Name)
		}
		seen[f.Name] = true
		if f.Kind == models.KindIdentifier && i > 0 {
			return errors.Errorf("model %s: identifier field %q must be declared first", m.Label(), f.Name)
		}
		if f.Kind == models.KindRelation && f.To == "" {
			return errors.Errorf("model %s: relation %q has no target", m.Label(), f.Name)
		}
	}
	for _, name := range m.NaturalKey {
		if !seen[name] {
			return errors.Errorf("model %s: natural key field %q is not declared", m.Label(), name)
		}
	}
	return nil
}

// link resolves the relation targets of every registered model.
func (r *Registry) link() error {
	for _, m := range r.models {
		for _, f := range m.Fields {
			if f.Kind != models.KindRelation || f.Related != nil {
				continue
			}
			target, err := r.lookup(f.To)
			if err != nil {
				// The target may be registered by a later call.
				if errors.Is(err, ErrUnknownModel) {
					continue
				}
				return errors.Wrapf(err, "model %s: relation %q", m.Label(), f.Name)
			}
			f.Related = target
		}
	}
	return nil
}

// Model returns the model named by identifier.
func (r *Registry) Model(identifier string) (*models.Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, err := r.lookup(identifier)
	if err != nil {
		return nil, err
	}
	for _, f := range m.Fields {
		if f.Kind == models.KindRelation && f.Related == nil {
			return nil, errors.Wrapf(ErrUnknownModel, "model %s: relation %q targets %q", m.Label(), f.Name, f.To)
		}
	}
	return m, nil
}

func (r *Registry) lookup(identifier string) (*models.Model, error) {
	app, name, ok := strings.Cut(strings.TrimSpace(identifier), ".")
	if !ok || app == "" || name == "" || strings.Contains(name, ".") {
		return nil, errors.Wrapf(ErrMalformedIdentifier, "%q", identifier)
	}
	m, ok := r.models[key(app, name)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownModel, "%q", identifier)
	}
	return m, nil
}

// Models returns every registered model ordered by label.
func (r *Registry) Models() []*models.Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label() < out[j].Label() })
	return out
}

// schemaFile is the layout of a YAML model schema.
type schemaFile struct {
	Models []*models.Model `yaml:"models"`
}

// Load parses a YAML model schema.
func Load(data []byte) (*Registry, error) {
	var schema schemaFile
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, errors.Wrap(err, "parse model schema")
	}
	r := New()
	if err := r.Register(schema.Models...); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadFile parses the YAML model schema at path.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read model schema")
	}
	r, err := Load(data)
	if err != nil {
		return nil, errors.Wrapf(err, "model schema %s", path)
	}
	return r, nil
}
