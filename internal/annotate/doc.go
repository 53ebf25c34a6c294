// Package annotate draws detection overlays onto images.
//
// Draw copies the input image and adds one rectangle plus one "label score"
// text tag per detection, with the tag anchored just above the box's
// top-left corner (clamped at the image top). Box coordinates are used
// verbatim; pixels that fall outside the image are dropped by the drawing
// primitives, with no other clipping or transform.
//
// Box colors are deterministic per label so the same category always gets
// the same color within and across images. A fixed color can be forced with
// a hex string like "#FF0000" or "#FF000080".
package annotate
