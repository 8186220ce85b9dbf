package texture

import (
	"errors"
	"fmt"
	"image"
	"math/rand"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrUnknownMaterial indicates a material name outside the supported set.
var ErrUnknownMaterial = errors.New("unknown material")

// Material names a procedural texture family.
type Material string

const (
	Wood     Material = "wood"
	Marble   Material = "marble"
	Tile     Material = "tile"
	Brick    Material = "brick"
	Concrete Material = "concrete"
	Carpet   Material = "carpet"
)

// Materials lists the supported materials in stable order.
func Materials() []Material {
	return []Material{Wood, Marble, Tile, Brick, Concrete, Carpet}
}

// defaultColors holds the base color used when Params.BaseColor is empty.
var defaultColors = map[Material]string{
	Wood:     "#8B5A2B",
	Marble:   "#E8E6E1",
	Tile:     "#C8C8C8",
	Brick:    "#A33B2E",
	Concrete: "#9E9E9E",
	Carpet:   "#6E7B8B",
}

// Params configures texture generation.
type Params struct {
	// Material selects the generator.
	Material Material
	// BaseColor is a "#RRGGBB" hex color; empty selects the material's
	// default.
	BaseColor string
	// Width and Height are the output dimensions in pixels.
	Width, Height int
	// Seed drives all randomness. The same params always produce the same
	// image; Seed 0 means "pick from the clock" and is the one
	// non-deterministic setting.
	Seed int64
	// Scale multiplies feature sizes (plank width, tile size, vein
	// frequency). 0 means 1.
	Scale float64
}

// Generate synthesizes a seamless-enough texture swatch for compositing
// onto detected surfaces.
func Generate(p Params) (*image.RGBA, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", p.Width, p.Height)
	}

	hex := p.BaseColor
	if hex == "" {
		hex = defaultColors[p.Material]
	}
	if hex == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMaterial, p.Material)
	}
	base, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("parsing base color %q: %w", p.BaseColor, err)
	}

	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	scale := p.Scale
	if scale <= 0 {
		scale = 1
	}

	g := &generator{
		width:  p.Width,
		height: p.Height,
		base:   base,
		rng:    rng,
		noise:  newValueNoise(seed),
		scale:  scale,
	}

	switch p.Material {
	case Wood:
		return g.wood(), nil
	case Marble:
		return g.marble(), nil
	case Tile:
		return g.tile(), nil
	case Brick:
		return g.brick(), nil
	case Concrete:
		return g.concrete(), nil
	case Carpet:
		return g.carpet(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMaterial, p.Material)
	}
}

// generator carries the shared state of one Generate call.
type generator struct {
	width, height int
	base          colorful.Color
	rng           *rand.Rand
	noise         *valueNoise
	scale         float64
}

// shade returns the base color with its luminance shifted by delta in
// [-1, 1], staying in gamut.
func (g *generator) shade(delta float64) colorful.Color {
	h, s, l := g.base.Hsl()
	l += delta
	if l < 0 {
		l = 0
	}
	if l > 1 {
		l = 1
	}
	return colorful.Hsl(h, s, l).Clamped()
}

// put writes a color at (x, y).
func put(img *image.RGBA, x, y int, c colorful.Color) {
	r, gg, b := c.RGB255()
	off := img.PixOffset(x, y)
	img.Pix[off] = r
	img.Pix[off+1] = gg
	img.Pix[off+2] = b
	img.Pix[off+3] = 255
}
