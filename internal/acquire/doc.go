// Package acquire runs the subtitle acquisition fallback sequence.
//
// For each media file the pipeline asks the worker for a subtitle in the
// primary language first, then walks the configured fallback languages in
// order, stopping at the first match whose similarity clears the floor. A
// found subtitle whose measured timing offset exceeds the configured
// threshold is flagged for resynchronization rather than rejected.
package acquire
