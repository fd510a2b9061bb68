// Package session persists client-side session state in SQLite: the
// completed-jobs journal, the active panel carried across runs, and the
// stable client identifier used to address the push channel. A file lock
// keeps the session directory single-writer.
package session
