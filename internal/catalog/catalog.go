package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/ad/go-workshop-core/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

var (
	ErrUnknownStep = errors.New("unknown step")
	ErrUnknownApp  = errors.New("unknown app type")
)

type StepKind string

const (
	KindVideo      StepKind = "video"
	KindAssessment StepKind = "assessment"
	KindReflection StepKind = "reflection"
	KindActivity   StepKind = "activity"
)

type Step struct {
	ID        string    `yaml:"id" json:"id"`
	Title     string    `yaml:"title" json:"title"`
	Kind      StepKind  `yaml:"kind" json:"kind"`
	Criterion Criterion `yaml:"criterion" json:"criterion"`
}

type workshop struct {
	Title string `yaml:"title"`
	Steps []Step `yaml:"steps"`
	index map[string]int
}

type document struct {
	Apps map[models.AppType]*workshop `yaml:"apps"`
}

// Catalog is the static, read-only step configuration of every workshop.
type Catalog struct {
	apps map[models.AppType]*workshop
}

func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

func Parse(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("catalog: definition is empty")
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if len(doc.Apps) == 0 {
		return nil, fmt.Errorf("catalog: no workshops defined")
	}

	for app, w := range doc.Apps {
		if _, err := models.ParseAppType(string(app)); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if w == nil || len(w.Steps) == 0 {
			return nil, fmt.Errorf("catalog: workshop %s has no steps", app)
		}
		w.index = make(map[string]int, len(w.Steps))
		for i, s := range w.Steps {
			if s.ID == "" {
				return nil, fmt.Errorf("catalog: workshop %s step %d has no id", app, i)
			}
			if _, dup := w.index[s.ID]; dup {
				return nil, fmt.Errorf("catalog: workshop %s has duplicate step %s", app, s.ID)
			}
			if err := s.Criterion.validate(); err != nil {
				return nil, fmt.Errorf("catalog: step %s: %w", s.ID, err)
			}
			w.index[s.ID] = i
		}
	}
	return &Catalog{apps: doc.Apps}, nil
}

func (c *Catalog) workshop(app models.AppType) (*workshop, error) {
	w, ok := c.apps[app]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownApp, app)
	}
	return w, nil
}

func (c *Catalog) Has(app models.AppType) bool {
	_, ok := c.apps[app]
	return ok
}

func (c *Catalog) Steps(app models.AppType) ([]Step, error) {
	w, err := c.workshop(app)
	if err != nil {
		return nil, err
	}
	return append([]Step(nil), w.Steps...), nil
}

func (c *Catalog) First(app models.AppType) (string, error) {
	w, err := c.workshop(app)
	if err != nil {
		return "", err
	}
	return w.Steps[0].ID, nil
}

// Position returns the zero-based index of the step in workshop order.
func (c *Catalog) Position(app models.AppType, stepID string) (int, error) {
	w, err := c.workshop(app)
	if err != nil {
		return 0, err
	}
	i, ok := w.index[stepID]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", ErrUnknownStep, app, stepID)
	}
	return i, nil
}

// Next returns the successor of stepID; ok is false for the terminal step.
func (c *Catalog) Next(app models.AppType, stepID string) (next string, ok bool, err error) {
	i, err := c.Position(app, stepID)
	if err != nil {
		return "", false, err
	}
	w := c.apps[app]
	if i+1 >= len(w.Steps) {
		return "", false, nil
	}
	return w.Steps[i+1].ID, true, nil
}

func (c *Catalog) IsTerminal(app models.AppType, stepID string) (bool, error) {
	_, ok, err := c.Next(app, stepID)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Resolve maps a step to the criterion that completes it.
func (c *Catalog) Resolve(app models.AppType, stepID string) (Criterion, error) {
	i, err := c.Position(app, stepID)
	if err != nil {
		return Criterion{}, err
	}
	return c.apps[app].Steps[i].Criterion, nil
}

// Ordered returns the given step ids sorted in workshop order. Unknown ids
// are dropped.
func (c *Catalog) Ordered(app models.AppType, ids []string) []string {
	w, ok := c.apps[app]
	if !ok {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	out := make([]string, 0, len(ids))
	for _, s := range w.Steps {
		if seen[s.ID] {
			out = append(out, s.ID)
		}
	}
	return out
}
