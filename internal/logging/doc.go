// Package logging assembles structured slog loggers and formatting helpers used
// across the fewshot pipeline.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline stages can tag log
// lines with the corpus being processed and the build run ID. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every stage emits
// data with the same shape.
package logging
