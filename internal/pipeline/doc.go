// Package pipeline orchestrates surface retexturing end to end: load the
// photograph and texture, segment the target surface, estimate the
// perspective transform from the surface corners, warp the texture onto
// the surface plane, composite, and persist the result with a JSON run
// record.
//
// Every run gets a unique ID used for all of its artifacts, and a
// RunRecord accounting for what happened: which segmentation method was
// requested versus actually used, the mask coverage and confidence, any
// fallback warnings, per-stage timings, and the terminal stage. Failed
// runs still produce a record.
//
// RunBatch processes many jobs under a bounded worker pool; each job is
// independent, so one failure never affects the others.
package pipeline
