// Package engine implements the data engine façade.
//
// The engine routes every table operation through one entry point,
// Execute, which validates input against the model registry, delegates to
// a storage.Adapter and converts stored rows back into registry objects.
//
// LIFECYCLE:
//
// Use selects a logical database and eagerly creates a table for every
// registered model. Any table operation before Use fails with
// NotInitializedError. Each Use mints a session token that is attached to
// the engine's log records for correlation.
//
// ACTIONS:
//
//   - create: target is the input data mapping
//   - get:    target is a row id
//   - update: target is a row id; WithData is required
//   - delete: target is a row id; soft by default
//   - query:  target is ignored; filter, conditions, order, limit and offset
//     come from ExecOptions
//
// Not-found outcomes on get, update and delete are reported through Result,
// never as errors.
package engine
