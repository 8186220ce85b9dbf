// Package geometry detects and reasons about line structure in edge maps:
// Hough line extraction, orientation filtering, corner inference, and
// binary mask construction from contours or quadrilaterals.
//
// Lines carry both a polar parameterization (rho, theta) and the pixel
// endpoints of the detected segment. Theta is the normal angle in [0, pi),
// so vertical lines are as well-behaved as horizontal ones; rho may be
// negative.
//
// FindQuadrilateral is the geometric heart of surface detection: given the
// lines of a roughly rectangular region seen in perspective, it returns the
// four corners in top-left, top-right, bottom-right, bottom-left order.
// When no quadrilateral exists the contour-based helpers (DilateEdges,
// LargestRegionMask) provide a coarser mask, and FillQuad rasterizes a
// known quad into one.
package geometry
