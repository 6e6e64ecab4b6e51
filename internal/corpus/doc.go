// Package corpus defines the per-author text model shared by every ingestion
// adapter and by the downstream vocabulary and sampling stages.
//
// A Source walks its raw files and emits Fragments tagged with an author.
// Collect concatenates the fragments of each author into a Raw corpus,
// dropping authors below a minimum token count. The vocabulary stage later
// turns a Raw corpus into an Encoded one. Both are immutable once built.
package corpus
