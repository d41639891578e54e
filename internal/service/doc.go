// Package service implements business logic for physioeval.
//
// This package sits between the command line and the repository layer. It
// converts the flat field map used by forms and documents into the typed
// evaluation aggregate and back, and publishes events for every change.
//
// # Services
//
// EvaluationService saves, reads, overwrites, deletes and lists evaluations
// through the field map.
//
// ExchangeService exports an evaluation to a JSON (or YAML) document and
// imports documents back as new evaluations.
//
// # Event System
//
// Services publish events via EventBus. The inbox watcher subscribes to log
// every import it triggers.
package service
