// Package panels manages the fixed set of workspace views and their
// single-active invariant. Panels react to activation and deactivation
// hooks, the active choice persists across sessions through the session
// store, and a small event bus lets panels observe each other without
// direct references.
package panels
