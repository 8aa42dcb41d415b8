// Package service runs a framectl process: every configured session in its
// own goroutine plus the optional admin server.
//
// Ownership boundary:
// - owns the lifecycle of transport sources and stream sessions
// - reopens sources with backoff when a session asks for reconnect
// - exposes live session stats and the transmit path to the admin server
package service
