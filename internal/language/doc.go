// Package language normalizes subtitle language codes and builds the
// prioritized search order used by the acquisition pipeline.
package language
