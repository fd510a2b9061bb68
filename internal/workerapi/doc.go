// Package workerapi is the typed HTTP client for the remote processing
// worker: job submission and control, subtitle download and multilingual
// search, and the directory/file listing surface.
//
// Non-2xx responses surface the worker's detail message through StatusError.
// Request failures are always returned as errors, never panics; callers
// convert them into per-row status text.
package workerapi
