package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"codeberg.org/anaseto/gruid"
)

// Default returns the built-in archetype set.
func Default() *Catalog {
	return New(
		RoomArchetype{ID: "entrance", Tag: TagStart, MinSize: gruid.Point{X: 8, Y: 8}, MaxSize: gruid.Point{X: 10, Y: 10},
			Weight: 1, MaxInstances: 1, MaxConnections: 3},
		RoomArchetype{ID: "hall", Tag: TagNormal, MinSize: gruid.Point{X: 8, Y: 7}, MaxSize: gruid.Point{X: 14, Y: 12},
			Weight: 6, MaxInstances: 12, MaxConnections: 4, SpawnTable: "creeps"},
		RoomArchetype{ID: "crossroads", Tag: TagNormal, MinSize: gruid.Point{X: 6, Y: 6}, MaxSize: gruid.Point{X: 9, Y: 9},
			Weight: 3, MaxInstances: 6, MaxConnections: 4, SpawnTable: "creeps"},
		RoomArchetype{ID: "closet", Tag: TagDeadEnd, MinSize: gruid.Point{X: 5, Y: 5}, MaxSize: gruid.Point{X: 7, Y: 7},
			Weight: 3, MaxInstances: 6, MaxConnections: 1, SpawnTable: "creeps"},
		RoomArchetype{ID: "vault", Tag: TagTreasure, MinSize: gruid.Point{X: 6, Y: 6}, MaxSize: gruid.Point{X: 8, Y: 8},
			Weight: 1, MaxInstances: 2, MaxConnections: 1},
		RoomArchetype{ID: "throne", Tag: TagBoss, MinSize: gruid.Point{X: 12, Y: 12}, MaxSize: gruid.Point{X: 16, Y: 14},
			Weight: 0, MaxInstances: 1, MaxConnections: 1, SpawnTable: "boss"},
	)
}

type archetypeFile struct {
	Archetypes []archetypeJSON `json:"archetypes"`
}

type archetypeJSON struct {
	ID             string `json:"id"`
	Tag            string `json:"tag"`
	MinSize        [2]int `json:"min_size"`
	MaxSize        [2]int `json:"max_size"`
	Weight         int    `json:"weight"`
	MaxInstances   int    `json:"max_instances"`
	MaxConnections int    `json:"max_connections"`
	SpawnTable     string `json:"spawn_table"`
}

// Parse decodes a JSON catalog and validates it.
func Parse(data []byte) (*Catalog, error) {
	var f archetypeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	archetypes := make([]RoomArchetype, 0, len(f.Archetypes))
	for i, a := range f.Archetypes {
		tag, err := ParseTag(a.Tag)
		if err != nil {
			return nil, fmt.Errorf("archetypes[%d]: %w", i, err)
		}
		archetypes = append(archetypes, RoomArchetype{
			ID:             a.ID,
			Tag:            tag,
			MinSize:        gruid.Point{X: a.MinSize[0], Y: a.MinSize[1]},
			MaxSize:        gruid.Point{X: a.MaxSize[0], Y: a.MaxSize[1]},
			Weight:         a.Weight,
			MaxInstances:   a.MaxInstances,
			MaxConnections: a.MaxConnections,
			SpawnTable:     a.SpawnTable,
		})
	}
	c := New(archetypes...)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and parses the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return c, nil
}
