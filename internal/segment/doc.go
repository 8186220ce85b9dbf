// Package segment turns a photograph into a surface mask, deciding which
// pixels belong to the wall, floor, or ceiling being retextured.
//
// Three strategies share one interface. The geometric strategy reads edge
// and line structure and needs no model; it degrades stepwise from a clean
// four-corner quadrilateral to the largest edge-bounded region to a
// full-image mask, never failing outright. The semantic and promptable
// strategies delegate to external models through the Predictor interface
// and fall back to geometric when the model is missing, errors, or returns
// an empty mask.
//
// A Result always states both the requested and the actually used method,
// so callers can surface degraded runs without inspecting warnings.
package segment
