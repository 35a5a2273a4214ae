package assets

import (
	"bufio"
	"embed"
	"io"
	"strings"
)

//go:embed presets.txt
var FS embed.FS

// Lines returns the non-blank, non-comment lines of r, trimmed.
func Lines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// PresetLines returns the embedded default board presets.
func PresetLines() ([]string, error) {
	f, err := FS.Open("presets.txt")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Lines(f)
}
