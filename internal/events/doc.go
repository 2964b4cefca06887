// Package events provides types and interfaces for an event-driven architecture.
//
// Services emit events without knowing which handlers will process them, so
// gamification, analytics and notification collaborators can subscribe to
// review activity without the scheduling code depending on them.
//
// The primary components are:
//   - Event: a typed notification with a JSON payload, e.g. ReviewRecorded
//   - EventHandler: interface for components that can handle events
//   - EventEmitter: interface for components that can emit events
package events
