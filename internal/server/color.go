package server

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/compositor-mcp/internal/pixel"
)

// colorArg is a colour given as "#rgb", "#rrggbb" or "#rrggbbaa". The
// leading '#' is optional and alpha defaults to opaque.
type colorArg struct {
	pixel.RGBA
	set bool
}

func (c *colorArg) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("colour must be a hex string: %w", err)
	}
	v, err := parseColor(s)
	if err != nil {
		return err
	}
	c.RGBA, c.set = v, true
	return nil
}

// or returns the parsed colour, or fallback when none was given.
func (c colorArg) or(fallback pixel.RGBA) pixel.RGBA {
	if !c.set {
		return fallback
	}
	return c.RGBA
}

func parseColor(s string) (pixel.RGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}

	alpha := float32(1)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return pixel.RGBA{}, fmt.Errorf("invalid alpha in colour %q", s)
		}
		alpha = float32(a) / 255
		s = s[:7]
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return pixel.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return pixel.RGBA{R: float32(c.R), G: float32(c.G), B: float32(c.B), A: alpha}, nil
}

// hexColor formats c as "#rrggbbaa", clamping each channel.
func hexColor(c pixel.RGBA) string {
	b := pixel.ToByte(c)
	return fmt.Sprintf("#%02x%02x%02x%02x", b.R, b.G, b.B, b.A)
}
