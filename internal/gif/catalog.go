// Package gif is the static catalog comment forms pick GIFs from. Comments
// store the picked GIF by URL only.
package gif

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("gif not found")

//go:embed gifs.yaml
var builtin []byte

type GIF struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

type Catalog struct {
	gifs []GIF
	byID map[string]GIF
}

type catalogFile struct {
	GIFs []GIF `yaml:"gifs"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(builtin)
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gif catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse gif catalog: %w", err)
	}

	c := &Catalog{
		gifs: make([]GIF, 0, len(f.GIFs)),
		byID: make(map[string]GIF, len(f.GIFs)),
	}
	for i, g := range f.GIFs {
		if g.ID == "" || g.URL == "" {
			return nil, fmt.Errorf("gif catalog entry %d: id and url are required", i)
		}
		if _, dup := c.byID[g.ID]; dup {
			return nil, fmt.Errorf("gif catalog entry %d: duplicate id %q", i, g.ID)
		}
		c.byID[g.ID] = g
		c.gifs = append(c.gifs, g)
	}
	return c, nil
}

// Search returns the GIFs whose name contains query, ignoring case, in catalog
// order. A blank query matches everything.
func (c *Catalog) Search(query string) []GIF {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]GIF, 0, len(c.gifs))
	for _, g := range c.gifs {
		if q == "" || strings.Contains(strings.ToLower(g.Name), q) {
			out = append(out, g)
		}
	}
	return out
}

func (c *Catalog) Lookup(id string) (GIF, error) {
	g, ok := c.byID[id]
	if !ok {
		return GIF{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return g, nil
}

func (c *Catalog) Len() int {
	return len(c.gifs)
}
