package devtools

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap/zaptest"

	"dungeonator/pkg/game/catalog"
	"dungeonator/pkg/game/generator"
	"dungeonator/pkg/game/state"
)

func layout(t *testing.T, seed uint64) *generator.DungeonLayout {
	t.Helper()
	l, err := generator.New(catalog.Default()).Generate(generator.NewRequest(seed, 8))
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func count(rows []string, r rune) int {
	n := 0
	for _, row := range rows {
		n += strings.Count(row, string(r))
	}
	return n
}

func TestRender(t *testing.T) {
	l := layout(t, 42)
	rows := Render(l)
	if len(rows) == 0 {
		t.Fatal("Render returned no rows")
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			t.Fatalf("row %d width = %d, want %d", i, len(row), width)
		}
	}
	if got := count(rows, symPlayer); got != 1 {
		t.Errorf("player symbols = %d, want 1", got)
	}
	if got := count(rows, symBoss); got != 1 {
		t.Errorf("boss symbols = %d, want 1", got)
	}
	if len(l.Corridors) > 0 && count(rows, symCorridor) == 0 {
		t.Error("no corridor symbols drawn")
	}
	// The crop keeps a wall margin around everything walkable.
	if strings.ContainsAny(rows[0], ".,") || strings.ContainsAny(rows[len(rows)-1], ".,") {
		t.Error("walkable cell on the map border")
	}
}

func TestWriteLayoutDump(t *testing.T) {
	l := layout(t, 3)
	var buf bytes.Buffer
	WriteLayoutDump(&buf, l)
	out := buf.String()
	for _, section := range []string{"--- Metadata ---", "--- Legend", "--- Map ---", "--- Rooms ---", "--- Corridors ---", "--- Content ---"} {
		if !strings.Contains(out, section) {
			t.Errorf("dump missing section %q", section)
		}
	}
	if !strings.Contains(out, "seed: 3\n") {
		t.Error("dump missing seed")
	}
	if got := strings.Count(out, "\nroom "); got != len(l.Rooms) {
		t.Errorf("room lines = %d, want %d", got, len(l.Rooms))
	}
}

func TestDumpLayoutToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.txt")
	got, err := DumpLayoutToFile(layout(t, 5), path)
	if err != nil {
		t.Fatalf("DumpLayoutToFile error = %v", err)
	}
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("=== DUNGEON DUMP")) {
		t.Errorf("dump starts with %q", data[:min(len(data), 20)])
	}
	if _, err := DumpLayoutToFile(nil, path); err == nil {
		t.Error("DumpLayoutToFile(nil) error = nil")
	}
}

type failingCloser struct {
	bytes.Buffer
}

var errClose = errors.New("disk full")

func (failingCloser) Close() error { return errClose }

func TestWriteDump_CloseError(t *testing.T) {
	var wc failingCloser
	if err := writeDump(&wc, layout(t, 5)); !errors.Is(err, errClose) {
		t.Errorf("writeDump error = %v, want the close error", err)
	}
	if wc.Len() == 0 {
		t.Error("nothing written before close")
	}
	if _, err := DumpLayoutToFile(layout(t, 5), filepath.Join(t.TempDir(), "missing", "dump.txt")); err == nil {
		t.Error("DumpLayoutToFile into a missing directory error = nil")
	}
}

func TestPreviewClips(t *testing.T) {
	var buf bytes.Buffer
	if err := Preview(&buf, layout(t, 9), PreviewOptions{Width: 20}); err != nil {
		t.Fatal(err)
	}
	for i, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		if w := runewidth.StringWidth(line); w > 20 {
			t.Errorf("line %d width = %d, want <= 20", i, w)
		}
	}
}

func TestColourise(t *testing.T) {
	out := colourise("##..,@")
	for _, run := range []string{"##", "..", ",", "@"} {
		if !strings.Contains(out, run) {
			t.Errorf("colourise output %q missing %q", out, run)
		}
	}
}

// dialFeed serves feed and returns a client connected to it.
func dialFeed(t *testing.T, ctx context.Context, feed *Feed) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(feed)
	t.Cleanup(srv.Close)
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial error = %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	for feed.Clients() == 0 {
		if ctx.Err() != nil {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestFeed_Watch(t *testing.T) {
	feed := NewFeed(zaptest.NewLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn := dialFeed(t, ctx, feed)

	m, err := state.NewMachine(generator.New(catalog.Default()), generator.NewRequest(42, 6))
	if err != nil {
		t.Fatal(err)
	}
	want, err := m.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	feed.Watch(ctx, m)

	var env Envelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != "phase" || env.Phase != "Finished" || env.Sequence != 1 {
		t.Errorf("first envelope = %+v, want phase Finished #1", env)
	}
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != "layout" || env.Layout == nil || env.Layout.Seed != want.Seed || env.Layout.Rooms != len(want.Rooms) {
		t.Errorf("second envelope = %+v, want layout of seed %d", env, want.Seed)
	}

	if err := m.RequestRegeneration(state.PlayerDeath); err != nil {
		t.Fatal(err)
	}
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != "phase" || env.Phase != "Idle" {
		t.Errorf("envelope after regeneration = %+v, want phase Idle", env)
	}
}

func TestFeed_WatchBeforeRun(t *testing.T) {
	feed := NewFeed(zaptest.NewLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn := dialFeed(t, ctx, feed)

	m, err := state.NewMachine(generator.New(catalog.Default()), generator.NewRequest(7, 6))
	if err != nil {
		t.Fatal(err)
	}
	feed.Watch(ctx, m)
	if _, err := m.Run(ctx); err != nil {
		t.Fatal(err)
	}

	want := []string{"Idle", "BuildingGraph", "PlacingRooms", "ConnectingCorridors", "PopulatingContent", "Finished"}
	for i, phase := range want {
		var env Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			t.Fatal(err)
		}
		if env.Type != "phase" || env.Phase != phase {
			t.Errorf("envelope %d = %+v, want phase %s", i, env, phase)
		}
	}
	var env Envelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != "layout" || env.Layout == nil || env.Layout.Seed != 7 {
		t.Errorf("last envelope = %+v, want the layout of seed 7", env)
	}
}
