// Package logs reads the client's own log file for the logs command: a
// bounded tail of recent lines plus a polling follow mode.
package logs
