// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Act is a schedulable unit: a named performance and the people in it.
// The performer order carries no meaning.
type Act struct {
	Name       string   `json:"name" yaml:"name" toml:"name"`
	Performers []string `json:"performers" yaml:"performers" toml:"performers"`
}

// Catalog is the read-only set of acts for one run, enumerated in the
// order they were first encountered in the source data.
//
// Performer names are interned to dense ids so that the cost function can
// run on integer slices instead of string maps.
type Catalog struct {
	acts       []Act
	index      map[string]int
	performers [][]int // act index -> performer ids
	names      []string
}

// NewCatalog validates acts and builds a Catalog.
// Act names are trimmed and must be unique and non-empty. Blank and repeated
// performer names inside a single act are dropped.
func NewCatalog(acts ...Act) (*Catalog, error) {
	c := &Catalog{
		acts:       make([]Act, 0, len(acts)),
		index:      make(map[string]int, len(acts)),
		performers: make([][]int, 0, len(acts)),
	}
	ids := make(map[string]int)

	for _, a := range acts {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return nil, ErrEmptyActName
		}
		if _, dup := c.index[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAct, name)
		}

		seen := make(map[string]struct{}, len(a.Performers))
		members := make([]string, 0, len(a.Performers))
		pids := make([]int, 0, len(a.Performers))
		for _, p := range a.Performers {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			members = append(members, p)

			id, ok := ids[p]
			if !ok {
				id = len(c.names)
				ids[p] = id
				c.names = append(c.names, p)
			}
			pids = append(pids, id)
		}

		c.index[name] = len(c.acts)
		c.acts = append(c.acts, Act{Name: name, Performers: members})
		c.performers = append(c.performers, pids)
	}
	return c, nil
}

// Len returns the number of acts.
func (c *Catalog) Len() int { return len(c.acts) }

// Names returns act names in catalog order. The slice is a copy.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.acts))
	for i, a := range c.acts {
		out[i] = a.Name
	}
	return out
}

// Acts returns a copy of the acts in catalog order.
func (c *Catalog) Acts() []Act {
	out := make([]Act, len(c.acts))
	for i, a := range c.acts {
		out[i] = Act{Name: a.Name, Performers: append([]string(nil), a.Performers...)}
	}
	return out
}

// Act returns a copy of the named act.
func (c *Catalog) Act(name string) (Act, bool) {
	i, ok := c.index[name]
	if !ok {
		return Act{}, false
	}
	a := c.acts[i]
	return Act{Name: a.Name, Performers: append([]string(nil), a.Performers...)}, true
}

// Has reports whether name is an act of the catalog.
func (c *Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Index returns the catalog position of name.
func (c *Catalog) Index(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// Name returns the name of the act at catalog position i.
func (c *Catalog) Name(i int) string { return c.acts[i].Name }

// Performers returns a copy of the performers of the named act.
func (c *Catalog) Performers(name string) ([]string, error) {
	i, ok := c.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAct, name)
	}
	return append([]string(nil), c.acts[i].Performers...), nil
}

// PerformerIDs returns the interned performer ids of the act at position i.
// The returned slice must not be modified.
func (c *Catalog) PerformerIDs(i int) []int { return c.performers[i] }

// PerformerName returns the performer name for an interned id.
func (c *Catalog) PerformerName(id int) string { return c.names[id] }

// PerformerCount returns the number of distinct performers in the catalog.
func (c *Catalog) PerformerCount() int { return len(c.names) }
