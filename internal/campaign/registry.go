package campaign

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"os"
	"sort"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed campaigns.yaml
var defaultRegistry []byte

// ErrInvalidRegistry is returned when a registry file does not validate.
var ErrInvalidRegistry = errors.New("invalid campaign registry")

// Params tune a predicate. Each predicate reads the fields it needs.
type Params struct {
	// GraceHours is how old a pending payment must be before reminding.
	GraceHours int `yaml:"grace_hours"`

	// InactiveDays is the silence that triggers a comeback nudge.
	InactiveDays int `yaml:"inactive_days"`

	// MinActivities is the period count that earns an achievement nudge.
	MinActivities int `yaml:"min_activities"`
}

// Definition is one campaign as written in the registry file.
type Definition struct {
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Predicate   string `yaml:"predicate"`
	Params      Params `yaml:"params"`
	Subject     string `yaml:"subject"`
	Text        string `yaml:"text"`
	HTML        string `yaml:"html"`
}

type registryFile struct {
	Campaigns []Definition `yaml:"campaigns"`
}

// Campaign is a validated definition with its predicate and templates.
type Campaign struct {
	Definition

	predicate Predicate
	subject   *template.Template
	text      *template.Template
	html      *htmltemplate.Template
}

// Registry maps campaign types to campaigns.
type Registry struct {
	campaigns map[string]*Campaign
}

// LoadRegistry loads the built-in campaigns and, when overridePath is set,
// the campaigns in that file, which replace built-ins of the same type.
func LoadRegistry(overridePath string) (*Registry, error) {
	sources := [][]byte{defaultRegistry}
	if overridePath != "" {
		data, err := os.ReadFile(overridePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read campaign registry: %w", err)
		}
		sources = append(sources, data)
	}
	return ParseRegistry(sources...)
}

// ParseRegistry builds a registry from YAML documents. Later documents
// replace earlier campaigns of the same type.
func ParseRegistry(sources ...[]byte) (*Registry, error) {
	r := &Registry{campaigns: make(map[string]*Campaign)}

	for i, src := range sources {
		var file registryFile
		dec := yaml.NewDecoder(bytes.NewReader(src))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: document %d: %v", ErrInvalidRegistry, i, err)
		}

		seen := make(map[string]bool)
		for _, def := range file.Campaigns {
			if seen[def.Type] {
				return nil, fmt.Errorf("%w: duplicate type %q", ErrInvalidRegistry, def.Type)
			}
			seen[def.Type] = true

			c, err := compile(def)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRegistry, def.Type, err)
			}
			r.campaigns[def.Type] = c
		}
	}

	if len(r.campaigns) == 0 {
		return nil, fmt.Errorf("%w: no campaigns defined", ErrInvalidRegistry)
	}
	return r, nil
}

func compile(def Definition) (*Campaign, error) {
	if def.Type == "" {
		return nil, errors.New("type is required")
	}
	pred, ok := predicates[def.Predicate]
	if !ok {
		return nil, fmt.Errorf("unknown predicate %q", def.Predicate)
	}
	if err := validateParams(def.Predicate, def.Params); err != nil {
		return nil, err
	}
	if def.Subject == "" || def.Text == "" {
		return nil, errors.New("subject and text are required")
	}

	c := &Campaign{Definition: def, predicate: pred}
	var err error
	if c.subject, err = template.New("subject").Parse(def.Subject); err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}
	if c.text, err = template.New("text").Parse(def.Text); err != nil {
		return nil, fmt.Errorf("text: %w", err)
	}
	if def.HTML != "" {
		if c.html, err = htmltemplate.New("html").Parse(def.HTML); err != nil {
			return nil, fmt.Errorf("html: %w", err)
		}
	}

	// Catch references to fields that do not exist before the first run.
	if _, err := c.render(sampleData); err != nil {
		return nil, err
	}
	return c, nil
}

func validateParams(predicate string, p Params) error {
	switch predicate {
	case "payment_reminder":
		if p.GraceHours < 0 {
			return errors.New("grace_hours must not be negative")
		}
	case "comeback_nudge":
		if p.InactiveDays <= 0 {
			return errors.New("inactive_days must be positive")
		}
	case "achievement_nudge":
		if p.MinActivities <= 0 {
			return errors.New("min_activities must be positive")
		}
	}
	return nil
}

// Lookup returns the campaign registered for t.
func (r *Registry) Lookup(t string) (*Campaign, bool) {
	c, ok := r.campaigns[t]
	return c, ok
}

// List returns every campaign sorted by type.
func (r *Registry) List() []*Campaign {
	list := make([]*Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Type < list[j].Type })
	return list
}
