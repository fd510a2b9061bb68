// Package jobs maintains the client-side view of remote processing jobs.
//
// The worker owns job state; this package mirrors it. Push events are the
// only authoritative input, applied strictly in arrival order. User control
// actions (pause, resume, cancel) write an optimistic snapshot immediately so
// the interface reflects intent, and the next event from the worker replaces
// that snapshot whether it confirms or contradicts it. Terminal transitions
// are journaled through the session store, keyed so duplicate event delivery
// never produces duplicate history.
package jobs
