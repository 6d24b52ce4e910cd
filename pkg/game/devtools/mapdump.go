// Package devtools provides developer tools for inspecting generated
// dungeons: a text dump, a coloured terminal preview and a live websocket
// feed of the generation machine.
package devtools

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"codeberg.org/anaseto/gruid"

	"dungeonator/pkg/engine/world"
	"dungeonator/pkg/game/generator"
	"dungeonator/pkg/game/setup"
)

const mapDumpFilename = "map.txt"

func point(p gruid.Point) string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

// DumpLayoutToFile writes a full debug dump of l to path (map.txt when
// empty) and returns the absolute path written.
func DumpLayoutToFile(l *generator.DungeonLayout, path string) (string, error) {
	if l == nil {
		return "", fmt.Errorf("no layout")
	}
	if path == "" {
		path = mapDumpFilename
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	f, err := os.Create(absPath)
	if err != nil {
		return "", err
	}
	if err := writeDump(f, l); err != nil {
		return "", fmt.Errorf("write %s: %w", absPath, err)
	}
	return absPath, nil
}

// writeDump writes the dump of l through a buffer and closes wc, reporting
// the first of the flush and close errors.
func writeDump(wc io.WriteCloser, l *generator.DungeonLayout) error {
	w := bufio.NewWriter(wc)
	WriteLayoutDump(w, l)
	if err := w.Flush(); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}

// WriteLayoutDump writes the dump sections: metadata, legend, map, then
// the room, corridor and content lists.
func WriteLayoutDump(w io.Writer, l *generator.DungeonLayout) {
	area := extent(l)
	reachable := setup.ReachableRooms(l, l.Start)

	fmt.Fprintln(w, "=== DUNGEON DUMP (layout, corridors, content) ===")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "--- Metadata ---")
	fmt.Fprintf(w, "seed: %d\n", l.Seed)
	fmt.Fprintf(w, "floor: %d\n", l.Floor.Level())
	fmt.Fprintf(w, "difficulty: %v\n", l.Scales.Preset)
	fmt.Fprintf(w, "coordinate_system: x,y (0-based, x=horizontal, y=vertical)\n")
	fmt.Fprintf(w, "bounds: %s..%s\n", point(l.Bounds.Min), point(l.Bounds.Max))
	fmt.Fprintf(w, "map_origin: %s\n", point(area.Min))
	fmt.Fprintf(w, "rooms: %d\n", len(l.Rooms))
	fmt.Fprintf(w, "reachable_rooms: %d\n", reachable.Size())
	fmt.Fprintf(w, "corridors: %d\n", len(l.Corridors))
	fmt.Fprintf(w, "content: %d\n", len(l.Content))
	fmt.Fprintf(w, "start_room: %d\n", l.Start)
	fmt.Fprintf(w, "boss_room: %d\n", l.Boss)
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, "--- Legend (cell symbols) ---")
	fmt.Fprintln(w, legend)
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, "--- Map ---")
	for _, row := range Render(l) {
		fmt.Fprintln(w, row)
	}
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, "--- Rooms ---")
	for _, r := range l.Rooms {
		arch := "-"
		if r.Archetype != nil {
			arch = r.Archetype.ID
		}
		fmt.Fprintf(w, "room %d: archetype=%s tags=%v depth=%d bounds=%s..%s size=%dx%d reachable=%v\n",
			r.ID, arch, r.Tags, r.Depth, point(r.Bounds.Min), point(r.Bounds.Max),
			world.Width(r.Bounds), world.Height(r.Bounds), reachable.Has(r.ID))
		for _, nb := range r.Neighbors {
			fmt.Fprintf(w, "  -> room %d via corridor %d, door %s\n", nb.Room, nb.Corridor, point(nb.Door))
		}
	}
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, "--- Corridors ---")
	for _, c := range l.Corridors {
		if c.Len() == 0 {
			fmt.Fprintf(w, "corridor %d: %d -> %d (empty)\n", c.ID, c.From, c.To)
			continue
		}
		fmt.Fprintf(w, "corridor %d: %d -> %d len=%d width=%d spanning=%v from=%s to=%s\n",
			c.ID, c.From, c.To, c.Len(), c.Width, c.Spanning, point(c.Path[0]), point(c.Path[c.Len()-1]))
	}
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, "--- Content ---")
	for _, c := range l.Content {
		at, _ := l.WorldPosition(c)
		fmt.Fprintf(w, "content %d: %v room=%d local=%s world=%s", c.ID, c.Kind, c.Room, point(c.Local), point(at))
		p := c.Params
		switch c.Kind {
		case generator.EnemySpawner:
			fmt.Fprintf(w, " table=%s waves=%d per_wave=%d interval=%.1fs", p.SpawnTable, p.Wave.Waves, p.Wave.PerWave, p.Wave.IntervalSeconds)
		case generator.WeaponSpawner:
			fmt.Fprintf(w, " table=%s", p.SpawnTable)
		case generator.Teleporter:
			fmt.Fprintf(w, " destination=%d target=%d", p.Destination, p.TargetRoom)
		case generator.RoomExit:
			fmt.Fprintf(w, " corridor=%d neighbor=%d", p.Corridor, p.Neighbor)
		}
		if p.Deferred {
			fmt.Fprintf(w, " deferred_on=%d", p.Trigger)
		}
		fmt.Fprintln(w)
	}
}
