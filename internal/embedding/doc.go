// Package embedding attaches pretrained word vectors to a vocabulary.
//
// A Source answers per-word lookups; LoadGloVe reads the GloVe text format
// into a Table. Attach produces a dense matrix whose row i is the vector of
// vocabulary id i, with the source's default vector (zeros for GloVe) for
// words the table does not know, UnknownToken included.
package embedding
