package texture

import (
	"image"
	"math"
	"math/rand"
)

// valueNoise is hash-based 2D value noise with bilinear interpolation,
// deterministic for a given seed.
type valueNoise struct {
	seed int64
}

func newValueNoise(seed int64) *valueNoise {
	return &valueNoise{seed: seed}
}

// lattice returns a pseudo-random value in [0, 1) for an integer lattice
// point.
func (n *valueNoise) lattice(x, y int) float64 {
	h := uint64(n.seed) ^ uint64(x)*0x9E3779B97F4A7C15 ^ uint64(y)*0xC2B2AE3D27D4EB4F
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	return float64(h%10000) / 10000
}

// At samples smooth noise at a continuous coordinate, in [0, 1).
func (n *valueNoise) At(x, y float64) float64 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)
	// Smoothstep fade.
	fx = fx * fx * (3 - 2*fx)
	fy = fy * fy * (3 - 2*fy)

	top := n.lattice(x0, y0)*(1-fx) + n.lattice(x0+1, y0)*fx
	bot := n.lattice(x0, y0+1)*(1-fx) + n.lattice(x0+1, y0+1)*fx
	return top*(1-fy) + bot*fy
}

// fbm layers octaves of value noise for a richer signal, in [0, 1).
func (n *valueNoise) fbm(x, y float64, octaves int) float64 {
	sum := 0.0
	amp := 0.5
	total := 0.0
	for i := 0; i < octaves; i++ {
		sum += n.At(x, y) * amp
		total += amp
		x *= 2
		y *= 2
		amp *= 0.5
	}
	return sum / total
}

// wood draws vertical planks with sinusoidal grain and per-plank tone.
func (g *generator) wood() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	plankW := int(60 * g.scale)
	if plankW < 8 {
		plankW = 8
	}

	numPlanks := g.width/plankW + 2
	plankTone := make([]float64, numPlanks)
	plankPhase := make([]float64, numPlanks)
	for i := range plankTone {
		plankTone[i] = (g.rng.Float64() - 0.5) * 0.10
		plankPhase[i] = g.rng.Float64() * 2 * math.Pi
	}

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			plank := x / plankW
			inPlank := x % plankW

			// Grain follows the plank lengthwise with gentle waviness.
			grain := math.Sin(float64(y)/(14*g.scale)+plankPhase[plank]+
				3*g.noise.At(float64(x)/40, float64(y)/40)) * 0.05
			speckle := (g.noise.fbm(float64(x)/6, float64(y)/6, 2) - 0.5) * 0.04

			delta := plankTone[plank] + grain + speckle
			if inPlank == 0 || inPlank == plankW-1 {
				delta -= 0.18 // plank seam
			}
			put(img, x, y, g.shade(delta))
		}
	}
	return img
}

// marble draws light stone with dark veins from folded sine turbulence.
func (g *generator) marble() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	freq := 0.02 / g.scale

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			turb := g.noise.fbm(float64(x)/80*g.scale, float64(y)/80*g.scale, 4)
			vein := math.Abs(math.Sin((float64(x)+float64(y)*0.6)*freq + turb*6))
			// Sharp dark veins over softly mottled stone.
			delta := (g.noise.At(float64(x)/30, float64(y)/30) - 0.5) * 0.03
			if vein < 0.08 {
				delta -= 0.25 * (1 - vein/0.08)
			}
			put(img, x, y, g.shade(delta))
		}
	}
	return img
}

// tile draws a square grid with grout lines and per-tile tint variation.
func (g *generator) tile() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	tileSize := int(80 * g.scale)
	if tileSize < 10 {
		tileSize = 10
	}
	grout := tileSize / 20
	if grout < 2 {
		grout = 2
	}

	cols := g.width/tileSize + 2
	rows := g.height/tileSize + 2
	tint := make([]float64, cols*rows)
	for i := range tint {
		tint[i] = (g.rng.Float64() - 0.5) * 0.06
	}

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			tx := x % tileSize
			ty := y % tileSize
			if tx < grout || ty < grout {
				put(img, x, y, g.shade(-0.3))
				continue
			}
			idx := (y/tileSize)*cols + x/tileSize
			delta := tint[idx] + (g.noise.At(float64(x)/12, float64(y)/12)-0.5)*0.02
			put(img, x, y, g.shade(delta))
		}
	}
	return img
}

// brick draws running-bond courses with mortar joints.
func (g *generator) brick() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	brickW := int(90 * g.scale)
	brickH := int(30 * g.scale)
	if brickW < 12 {
		brickW = 12
	}
	if brickH < 6 {
		brickH = 6
	}
	mortar := brickH / 6
	if mortar < 2 {
		mortar = 2
	}

	toneFor := func(row, col int) float64 {
		r := rand.New(rand.NewSource(g.noiseSeed() ^ int64(row)*7919 ^ int64(col)*104729))
		return (r.Float64() - 0.5) * 0.12
	}

	for y := 0; y < g.height; y++ {
		row := y / brickH
		offset := 0
		if row%2 == 1 {
			offset = brickW / 2 // running bond
		}
		for x := 0; x < g.width; x++ {
			bx := (x + offset) % brickW
			by := y % brickH
			if bx < mortar || by < mortar {
				put(img, x, y, g.shade(0.22))
				continue
			}
			col := (x + offset) / brickW
			delta := toneFor(row, col) + (g.noise.At(float64(x)/8, float64(y)/8)-0.5)*0.05
			put(img, x, y, g.shade(delta))
		}
	}
	return img
}

// concrete draws flat gray with fine speckle and broad mottling.
func (g *generator) concrete() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			broad := (g.noise.fbm(float64(x)/120*g.scale, float64(y)/120*g.scale, 3) - 0.5) * 0.06
			fine := (g.noise.At(float64(x)/2, float64(y)/2) - 0.5) * 0.05
			put(img, x, y, g.shade(broad+fine))
		}
	}
	return img
}

// carpet draws dense fiber noise with a faint weave direction.
func (g *generator) carpet() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		rowShift := math.Sin(float64(y)/(3*g.scale)) * 0.015
		for x := 0; x < g.width; x++ {
			fiber := (g.noise.At(float64(x)/1.5, float64(y)/1.5) - 0.5) * 0.09
			put(img, x, y, g.shade(fiber+rowShift))
		}
	}
	return img
}

// noiseSeed exposes the noise seed for per-feature sub-generators.
func (g *generator) noiseSeed() int64 {
	return g.noise.seed
}
