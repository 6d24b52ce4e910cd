// Package catalog holds the room archetypes the dungeon generator draws from.
// A catalog is loaded once and treated as immutable afterwards.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"codeberg.org/anaseto/gruid"
)

// Tag classifies a room. Tags are bit flags so a node can carry more than
// one (the single-room dungeon is both Start and Boss).
type Tag uint8

const (
	TagStart Tag = 1 << iota
	TagNormal
	TagDeadEnd
	TagBoss
	TagTreasure
)

var tagNames = []struct {
	tag  Tag
	name string
}{
	{TagStart, "Start"},
	{TagNormal, "Normal"},
	{TagDeadEnd, "DeadEnd"},
	{TagBoss, "Boss"},
	{TagTreasure, "Treasure"},
}

// Has reports whether t includes every flag of o.
func (t Tag) Has(o Tag) bool {
	return o != 0 && t&o == o
}

// String returns the tag names joined with "|".
func (t Tag) String() string {
	var parts []string
	for _, tn := range tagNames {
		if t.Has(tn.tag) {
			parts = append(parts, tn.name)
		}
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, "|")
}

// ParseTag returns the single tag named s (case-insensitive).
func ParseTag(s string) (Tag, error) {
	for _, tn := range tagNames {
		if strings.EqualFold(tn.name, s) {
			return tn.tag, nil
		}
	}
	return 0, fmt.Errorf("unknown room tag %q", s)
}

// RoomArchetype is a template for rooms of one kind.
type RoomArchetype struct {
	ID             string
	Tag            Tag
	MinSize        gruid.Point // width, height in tiles
	MaxSize        gruid.Point
	Weight         int // relative selection weight; 0 never picked at random
	MaxInstances   int
	MaxConnections int
	SpawnTable     string
}

// Catalog is an ordered list of archetypes. Order matters: every random
// choice iterates archetypes in catalog order, which keeps generation
// deterministic.
type Catalog struct {
	archetypes []*RoomArchetype
	byID       map[string]*RoomArchetype
}

// New builds a catalog from archetypes, keeping their order.
func New(archetypes ...RoomArchetype) *Catalog {
	c := &Catalog{byID: make(map[string]*RoomArchetype, len(archetypes))}
	for i := range archetypes {
		a := archetypes[i]
		c.archetypes = append(c.archetypes, &a)
		if _, dup := c.byID[a.ID]; !dup {
			c.byID[a.ID] = &a
		}
	}
	return c
}

// Archetypes returns the archetypes in catalog order.
func (c *Catalog) Archetypes() []*RoomArchetype {
	return c.archetypes
}

// Len returns the number of archetypes.
func (c *Catalog) Len() int {
	return len(c.archetypes)
}

// Get returns the archetype with the given id, or nil.
func (c *Catalog) Get(id string) *RoomArchetype {
	return c.byID[id]
}

// ByTag returns the archetypes carrying tag, in catalog order.
func (c *Catalog) ByTag(tag Tag) []*RoomArchetype {
	var out []*RoomArchetype
	for _, a := range c.archetypes {
		if a.Tag.Has(tag) {
			out = append(out, a)
		}
	}
	return out
}

// Boss returns the first Boss archetype, or nil when the catalog has none.
func (c *Catalog) Boss() *RoomArchetype {
	if bs := c.ByTag(TagBoss); len(bs) > 0 {
		return bs[0]
	}
	return nil
}

// ConfigError reports one malformed catalog or request field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// Validate checks the catalog contract and returns every violation found.
func (c *Catalog) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}
	if len(c.archetypes) == 0 {
		bad("archetypes", "catalog is empty")
	}
	seen := make(map[string]bool, len(c.archetypes))
	starts := 0
	for i, a := range c.archetypes {
		field := fmt.Sprintf("archetypes[%d]", i)
		if a.ID == "" {
			bad(field+".id", "must not be empty")
		} else if seen[a.ID] {
			bad(field+".id", "duplicate id %q", a.ID)
		}
		seen[a.ID] = true
		if countTags(a.Tag) != 1 {
			bad(field+".tag", "must be exactly one tag, got %v", a.Tag)
		}
		if a.MinSize.X < 1 || a.MinSize.Y < 1 {
			bad(field+".min_size", "must be positive, got %v", a.MinSize)
		}
		if a.MaxSize.X < a.MinSize.X || a.MaxSize.Y < a.MinSize.Y {
			bad(field+".max_size", "%v is smaller than min_size %v", a.MaxSize, a.MinSize)
		}
		if a.Weight < 0 {
			bad(field+".weight", "must not be negative, got %d", a.Weight)
		}
		if a.MaxInstances < 0 {
			bad(field+".max_instances", "must not be negative, got %d", a.MaxInstances)
		}
		if a.MaxConnections < 1 {
			bad(field+".max_connections", "must be at least 1, got %d", a.MaxConnections)
		}
		if a.Tag == TagStart && a.MaxInstances >= 1 {
			starts++
		}
	}
	if len(c.archetypes) > 0 && starts == 0 {
		bad("archetypes", "no Start archetype with max_instances >= 1")
	}
	return errors.Join(errs...)
}

func countTags(t Tag) int {
	n := 0
	for _, tn := range tagNames {
		if t.Has(tn.tag) {
			n++
		}
	}
	return n
}
