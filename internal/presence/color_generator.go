package presence

import (
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorGenerator: hands out well-separated roster colours, one per participant
type ColorGenerator struct {
	counter  int
	assigned map[string]string
	mu       sync.Mutex
}

func NewColorGenerator() *ColorGenerator {
	return &ColorGenerator{assigned: make(map[string]string)}
}

// ColorFor: the participant's colour, assigned on first sight from the golden ratio sequence
func (cg *ColorGenerator) ColorFor(userID string) string {
	cg.mu.Lock()
	defer cg.mu.Unlock()

	if color, ok := cg.assigned[userID]; ok {
		return color
	}

	const goldenRatio = 0.618033988749895
	hue := float64(cg.counter) * goldenRatio
	hue = hue - float64(int(hue)) // Keep fractional part
	cg.counter++

	color := colorful.Hsl(hue*360, 0.85, 0.55).Hex()
	cg.assigned[userID] = color
	return color
}
