// Package compose blends a (typically perspective-warped) texture into a
// base photograph under the control of a binary surface mask.
//
// The blend weight of every pixel is mask weight * Alpha * texture alpha,
// which makes the operation safe to feed directly from a warp: the
// transparent pixels surrounding a projected texture contribute nothing,
// so the mask and the warp do not need to agree exactly at the boundary.
// FeatherRadius trades the hard mask edge for a Gaussian falloff.
package compose
