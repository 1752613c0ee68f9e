// Package events provides types and interfaces for an event-driven architecture.
//
// This package defines event types and handler interfaces that allow for loose
// coupling between the session engine and components that react to it. The
// engine emits events without knowing which handlers will process them, which
// replaces module-level callbacks for things like reconciling learner totals
// after a progress push.
//
// The primary components are:
// - SessionEvent: one observable change in a live session
// - EventHandler: interface for components that can handle events
// - EventEmitter: interface for components that can emit events
package events
