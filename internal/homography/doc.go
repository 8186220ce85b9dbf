// Package homography estimates and applies planar projective transforms:
// the mapping between a flat texture and the same plane photographed in
// perspective.
//
// Estimation solves the direct linear transform from four point
// correspondences, or finds a consensus transform with RANSAC when more
// (possibly noisy) correspondences are available. Warp projects a texture
// into a scene with inverse mapping and bilinear sampling, leaving
// uncovered destination pixels transparent; Rectify performs the opposite
// extraction of a scene quadrilateral into a fronto-parallel view.
//
// Matrices are row-major [9]float64 with the bottom-right element fixed at
// 1. All estimation and inversion failures report ErrInsufficientPoints or
// ErrDegenerateTransform for errors.Is dispatch.
package homography
