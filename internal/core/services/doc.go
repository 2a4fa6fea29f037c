// Package services implements the driving port interfaces.
// Services contain the core business logic - similarity search with its
// client-side fallback, the ingestion pipeline and harvest orchestration -
// and coordinate calls to driven ports (adapters).
//
// Services are pure Go with no external dependencies beyond the ports.
package services
