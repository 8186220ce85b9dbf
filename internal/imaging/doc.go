// Package imaging provides the pixel-level primitives of the surface
// texturing pipeline: image loading and caching, edge detection, and color
// analysis.
//
// All operations work with standard Go image.Image types and a coordinate
// system where (0,0) is the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Buffer Ownership
//
// Every operation treats its inputs as read-only and returns a freshly
// allocated buffer. No function retains a reference to a caller's image, and
// no cached "last result" state exists; repeated calls with the same inputs
// produce independent, equal outputs.
//
// # Edge Maps
//
// DetectEdges produces a binary *image.Gray (0 or 255) anchored at (0,0)
// with the same dimensions as its source. GradientMagnitude produces a
// continuous 0-255 map for callers that need raw edge strength.
//
// # Error Handling
//
// Invalid inputs (reversed thresholds, zero-area images, bad regions) return
// errors wrapping ErrInvalidParameter so callers can test the kind with
// errors.Is. I/O and codec failures are wrapped with context.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless
// and can run concurrently on independent inputs.
package imaging
