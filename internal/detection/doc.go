// Package detection defines the detection data model and the post-processing
// pipeline applied to raw detections returned by the inference service.
//
// A Detection pairs a category label with a confidence score and an
// axis-aligned bounding box in pixel coordinates. Detections are created by
// the inference client, never mutated, and discarded after one render cycle.
//
// # Post-Processing
//
// Process applies three steps, in a fixed order:
//
//  1. Filter: drop detections with a score below the threshold
//  2. Sort: stable descending sort by score (ties keep API order)
//  3. Truncate: keep at most top_k entries
//
// The output is therefore exactly the subset of input detections with
// score >= threshold, highest-confidence first, capped at top_k. Running
// Process twice on the same input yields identical output.
//
// # Coordinate System
//
// Boxes use the standard image convention: origin (0, 0) at the top-left
// corner, X increasing rightward, Y increasing downward. Coordinates arrive
// from the inference API with XMin <= XMax and YMin <= YMax and are carried
// verbatim; no transform or clipping happens here.
package detection
