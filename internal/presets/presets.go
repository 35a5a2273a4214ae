// apps/go-server/internal/presets/presets.go
//
// Named board configurations for new games.
//
// Responsibilities:
//   - Load presets from PRESETS_FILE, or fall back to the embedded defaults.
//   - Validate each preset as a game.Config before it is offered to players.
//   - Supply Lookup, Names and Default for the HTTP layer and the terminal client.
//
// File format (one preset per line, '#' starts a comment line):
//   name rows cols mines
//   beginner 9 9 10
//
// Environment variables:
//   PRESETS_FILE=/path/to/presets.txt
//
// Initialization is run once (sync.Once). Lookups trigger it lazily.

package presets

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/robalobadob/minesweeper/apps/go-server/assets"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/game"
)

// Preset is a named board configuration.
type Preset struct {
	Name string `json:"name"`
	game.Config
}

// DefaultName is preferred by Default when it is loaded.
const DefaultName = "intermediate"

var (
	initOnce   sync.Once
	loaded     []Preset
	byName     map[string]Preset
	initialErr error
)

// Init loads presets exactly once.
// Returns an error if the file cannot be read or holds no valid preset.
func Init() error {
	initOnce.Do(func() {
		var lines []string
		var err error
		if path := os.Getenv("PRESETS_FILE"); path != "" {
			lines, err = readFile(path)
		} else {
			lines, err = assets.PresetLines()
		}
		if err != nil {
			initialErr = err
			return
		}
		list, err := Parse(lines)
		if err != nil {
			initialErr = err
			return
		}
		loaded = list
		byName = make(map[string]Preset, len(list))
		for _, p := range list {
			byName[p.Name] = p
		}
	})
	return initialErr
}

func readFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return assets.Lines(f)
}

// Parse turns "name rows cols mines" lines into presets, keeping file order.
// A duplicate name replaces the earlier entry.
func Parse(lines []string) ([]Preset, error) {
	var out []Preset
	index := map[string]int{}
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("presets: line %d: want 'name rows cols mines', got %q", i+1, line)
		}
		var nums [3]int
		for j, f := range fields[1:] {
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("presets: line %d: %w", i+1, err)
			}
			nums[j] = n
		}
		p := Preset{
			Name:   strings.ToLower(fields[0]),
			Config: game.Config{Rows: nums[0], Cols: nums[1], Mines: nums[2]},
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("presets: %s: %w", p.Name, err)
		}
		if k, dup := index[p.Name]; dup {
			out[k] = p
			continue
		}
		index[p.Name] = len(out)
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, errors.New("presets: list is empty")
	}
	return out, nil
}

// Lookup returns the named preset's config.
func Lookup(name string) (game.Config, bool) {
	_ = Init()
	p, ok := byName[strings.ToLower(name)]
	return p.Config, ok
}

// All returns the loaded presets in file order.
func All() []Preset {
	_ = Init()
	return append([]Preset(nil), loaded...)
}

// Names returns the preset names in file order.
func Names() []string {
	_ = Init()
	out := make([]string, len(loaded))
	for i, p := range loaded {
		out[i] = p.Name
	}
	return out
}

// Default returns DefaultName if loaded, else the first preset.
// Falls back to the 16x16 board with 40 mines if nothing loaded.
func Default() Preset {
	_ = Init()
	if p, ok := byName[DefaultName]; ok {
		return p
	}
	if len(loaded) > 0 {
		return loaded[0]
	}
	return Preset{Name: DefaultName, Config: game.Config{Rows: 16, Cols: 16, Mines: 40}}
}
