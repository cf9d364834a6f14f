// Package services defines shared utilities consumed by the acquisition
// stages and the catalog client.
//
// Key responsibilities:
//   - Context helpers that stamp rule names, broadcast identifiers, stage
//     names, and run identifiers for logging.
//   - Structured error markers plus the Wrap helper that separate fatal
//     configuration failures from per-item problems the batch survives.
//
// Use these helpers when wiring new stage logic so failure handling and
// observability stay uniform across the pipeline.
package services
