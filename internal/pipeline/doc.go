// Package pipeline turns a raw corpus into a sampling-ready Dataset.
//
// Build runs the stages in order: collect, normalize, vocabulary, encode,
// embedding, eligibility, split. Each stage produces a new value and the
// Dataset holds only the final, read-only results, so any number of
// goroutines may sample episodes from it as long as each brings its own
// random generator.
package pipeline
