// Package pushchan maintains the WebSocket push channel to the worker.
//
// The channel is receive-dominant: the worker streams job events and the
// client occasionally sends small control frames. On failure the connection
// redials on a fixed interval with a bounded attempt budget; one timer is
// live at a time, and an explicit Disconnect cancels it. Frames are handed
// to the registered handler in arrival order from a single reader goroutine.
package pushchan
