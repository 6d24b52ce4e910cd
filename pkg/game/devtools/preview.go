package devtools

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"

	"dungeonator/pkg/engine/terminal"
	"dungeonator/pkg/game/generator"
)

var (
	ColorWall     = color.Style{color.FgGray}
	ColorFloor    = color.Style{color.FgWhite}
	ColorCorridor = color.Style{color.FgYellow}
	ColorPlayer   = color.Style{color.FgGreen, color.BgBlack, color.OpBold}
	ColorBoss     = color.Style{color.FgRed, color.OpBold}
	ColorEnemy    = color.Style{color.FgRed}
	ColorItem     = color.Style{color.FgGreen, color.OpBold}
	ColorPortal   = color.Style{color.FgMagenta, color.OpBold}
	ColorExit     = color.Style{color.FgBlue}
)

func symbolStyle(r rune) (color.Style, bool) {
	switch r {
	case symWall:
		return ColorWall, true
	case symFloor:
		return ColorFloor, true
	case symCorridor:
		return ColorCorridor, true
	case symPlayer:
		return ColorPlayer, true
	case symBoss:
		return ColorBoss, true
	case symEnemy, symDeferred:
		return ColorEnemy, true
	case symWeapon:
		return ColorItem, true
	case symTeleport:
		return ColorPortal, true
	case symExit:
		return ColorExit, true
	}
	return nil, false
}

// colourise renders row with one style per run of equal symbols.
func colourise(row string) string {
	var b strings.Builder
	runes := []rune(row)
	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		run := string(runes[i:j])
		if st, ok := symbolStyle(runes[i]); ok {
			b.WriteString(st.Sprint(run))
		} else {
			b.WriteString(run)
		}
		i = j
	}
	return b.String()
}

// PreviewOptions controls Preview output.
type PreviewOptions struct {
	Width  int  // columns per line; the terminal width when zero
	Colour bool // emit colour codes
}

// Preview writes a header line and the layout map to w, each line clipped
// to the available width.
func Preview(w io.Writer, l *generator.DungeonLayout, opts PreviewOptions) error {
	width := opts.Width
	if width <= 0 {
		width = terminal.GetWidth()
	}
	header := fmt.Sprintf("seed %d  %s  %s  rooms %d  corridors %d",
		l.Seed, l.Floor.Label(), l.Scales.Preset.Label(), len(l.Rooms), len(l.Corridors))
	if _, err := fmt.Fprintln(w, terminal.Clip(header, width)); err != nil {
		return err
	}
	for _, row := range Render(l) {
		row = terminal.Clip(row, width)
		if opts.Colour {
			row = colourise(row)
		}
		if _, err := fmt.Fprintln(w, row); err != nil {
			return err
		}
	}
	return nil
}
