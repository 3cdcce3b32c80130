// Package control is the external interface surface: every transport —
// the Unix socket, the HTTP/WebSocket listener, the CLI — calls into a
// Controller rather than touching internal/engine directly, so command
// validation and error classification live in exactly one place.
package control

import (
	"rungscan/internal/engine"
	"rungscan/internal/lifecycle"
	"rungscan/internal/program"
)

// Controller wraps one engine with the command surface a client issues:
// load a program, start/stop/reset the scan, force a bit, read a
// snapshot.
type Controller struct {
	eng *engine.Engine
}

// New wraps an already-running engine.
func New(eng *engine.Engine) *Controller {
	return &Controller{eng: eng}
}

// Load installs a new program. A malformed document is rejected before
// the installed program changes, and the engine is put in STOP.
func (c *Controller) Load(doc program.Document) error {
	return c.eng.Load(doc)
}

// Start transitions the engine to RUN.
func (c *Controller) Start() error {
	return c.eng.Start()
}

// Stop transitions the engine to STOP.
func (c *Controller) Stop() {
	c.eng.Stop()
}

// Reset clears all state and returns the engine to STOP.
func (c *Controller) Reset() {
	c.eng.ResetAll()
}

// Write forces a bit address, for manual override or test-rig input.
func (c *Controller) Write(addr string, value bool) {
	c.eng.WriteBit(addr, value)
}

// Phase reports the current lifecycle phase.
func (c *Controller) Phase() lifecycle.Phase {
	return c.eng.Phase()
}

// Document returns the most recently loaded program, for persisting
// engine state across restarts.
func (c *Controller) Document() program.Document {
	return c.eng.Document()
}

// Snapshot reports the current engine state.
func (c *Controller) Snapshot() engine.Snapshot {
	return c.eng.Snapshot()
}

// Subscribe registers for a stream of snapshots, for the WebSocket
// transport.
func (c *Controller) Subscribe() <-chan engine.Snapshot {
	return c.eng.Subscribe()
}
