package whiteboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var ErrColorNotInPalette = errors.New("color not in palette")

// DefaultColors: pen colours offered in the classroom toolbar
var DefaultColors = []string{
	"#000000", "#ffffff", "#e53935", "#fb8c00", "#fdd835",
	"#43a047", "#1e88e5", "#8e24aa", "#6d4c41", "#757575",
}

// Palette: closed set of allowed colours, stored as normalised hex
type Palette struct {
	colors  []string
	allowed map[string]bool
}

func NewPalette(hexes ...string) (*Palette, error) {
	p := &Palette{allowed: make(map[string]bool, len(hexes))}
	for _, h := range hexes {
		c, err := colorful.Hex(strings.TrimSpace(h))
		if err != nil {
			return nil, fmt.Errorf("invalid palette colour %q: %w", h, err)
		}
		hex := c.Hex()
		if !p.allowed[hex] {
			p.allowed[hex] = true
			p.colors = append(p.colors, hex)
		}
	}
	if len(p.colors) == 0 {
		return nil, errors.New("palette is empty")
	}
	return p, nil
}

// MustPalette panics on an invalid palette; meant for package-level defaults
func MustPalette(hexes ...string) *Palette {
	p, err := NewPalette(hexes...)
	if err != nil {
		panic(err)
	}
	return p
}

// Normalize parses a hex colour and returns its canonical form if it belongs to the palette
func (p *Palette) Normalize(color string) (string, error) {
	c, err := colorful.Hex(strings.TrimSpace(color))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrColorNotInPalette, color)
	}
	hex := c.Hex()
	if !p.allowed[hex] {
		return "", fmt.Errorf("%w: %s", ErrColorNotInPalette, hex)
	}
	return hex, nil
}

func (p *Palette) Colors() []string {
	out := make([]string, len(p.colors))
	copy(out, p.colors)
	return out
}

func (p *Palette) Default() string {
	return p.colors[0]
}
