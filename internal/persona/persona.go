// Package persona holds the rapper personas a freestyle can be written in
// and builds the prompt sent to the model.
package persona

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// ErrUnknown is returned when a persona name is not in the catalog.
var ErrUnknown = errors.New("unknown persona")

// Persona is a rapper whose style the model imitates.
type Persona struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// DefaultName is the persona selected when none is given.
const DefaultName = "Harry Mack"

// builtins is the fixed persona set offered by the dropdown.
var builtins = []Persona{
	{Name: "Harry Mack", Description: "Omegle freestyle king, weaves the audience's words into every line"},
	{Name: "Eminem", Description: "Rapid-fire, dense internal rhyme schemes"},
	{Name: "Kendrick Lamar", Description: "Conscious storytelling with shifting flows"},
	{Name: "Jay-Z", Description: "Effortless wordplay and double entendres"},
	{Name: "Nas", Description: "Vivid street poetry"},
	{Name: "Snoop Dogg", Description: "Laid-back West Coast drawl"},
	{Name: "MF DOOM", Description: "Villainous, abstract, multisyllabic"},
	{Name: "Lil Wayne", Description: "Punchlines and metaphors for days"},
}

// Catalog is an ordered, case-insensitive set of personas.
type Catalog struct {
	personas []Persona
	index    map[string]int
	def      string
}

// NewCatalog returns a catalog holding the built-in personas with
// DefaultName as default.
func NewCatalog() *Catalog {
	c := &Catalog{index: make(map[string]int), def: DefaultName}
	for _, p := range builtins {
		c.Add(p)
	}
	return c
}

// Add inserts p, replacing the description of an existing persona with the
// same name.
func (c *Catalog) Add(p Persona) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return
	}
	key := strings.ToLower(p.Name)
	if i, ok := c.index[key]; ok {
		if p.Description != "" {
			c.personas[i].Description = p.Description
		}
		return
	}
	c.index[key] = len(c.personas)
	c.personas = append(c.personas, p)
}

// Lookup finds a persona by name, ignoring case and surrounding whitespace.
func (c *Catalog) Lookup(name string) (Persona, bool) {
	i, ok := c.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Persona{}, false
	}
	return c.personas[i], true
}

// Resolve returns the named persona, or the default when name is blank.
func (c *Catalog) Resolve(name string) (Persona, error) {
	if strings.TrimSpace(name) == "" {
		return c.Default(), nil
	}
	p, ok := c.Lookup(name)
	if !ok {
		return Persona{}, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return p, nil
}

// SetDefault changes the default persona. The name must be in the catalog.
func (c *Catalog) SetDefault(name string) error {
	p, ok := c.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	c.def = p.Name
	return nil
}

// Default returns the default persona.
func (c *Catalog) Default() Persona {
	p, _ := c.Lookup(c.def)
	return p
}

// All returns a copy of the personas in catalog order.
func (c *Catalog) All() []Persona {
	out := make([]Persona, len(c.personas))
	copy(out, c.personas)
	return out
}

// Names returns persona names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.personas))
	for i, p := range c.personas {
		names[i] = p.Name
	}
	return names
}

// fileFormat is the YAML layout of a persona file.
type fileFormat struct {
	Personas []Persona `yaml:"personas"`
}

// LoadFiles adds personas from every YAML file matching the given doublestar
// patterns. It returns the number of files read.
func (c *Catalog) LoadFiles(patterns []string) (int, error) {
	seen := make(map[string]bool)
	read := 0
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return read, fmt.Errorf("bad persona pattern %q: %w", pattern, err)
		}
		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true

			data, err := os.ReadFile(path)
			if err != nil {
				return read, fmt.Errorf("reading persona file %s: %w", path, err)
			}
			var f fileFormat
			if err := yaml.Unmarshal(data, &f); err != nil {
				return read, fmt.Errorf("parsing persona file %s: %w", path, err)
			}
			for _, p := range f.Personas {
				c.Add(p)
			}
			read++
		}
	}
	return read, nil
}
