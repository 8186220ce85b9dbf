// Package texture procedurally generates material swatches (wood, marble,
// tile, brick, concrete, carpet) for compositing onto detected surfaces.
//
// Every generator derives its features from a seeded noise source, so a
// fixed Params.Seed reproduces the exact same image; Seed 0 draws a seed
// from the clock. Colors are expressed as a single base color whose
// luminance is modulated per feature, which keeps any material usable with
// any caller-supplied palette.
package texture
