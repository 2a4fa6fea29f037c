// Package driving defines the interfaces that external actors use to
// drive the application: the CLI and the HTTP API.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// Core services implement them; the cli and api adapters call them.
package driving
