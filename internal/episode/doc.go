// Package episode samples N-way K-shot authorship episodes from encoded
// author sequences.
//
// An episode picks Tasks distinct authors from a pool. Label i belongs to the
// i-th picked author. The support set holds Examples excerpts per author and
// the query set holds Examples*ValMultiplier excerpts per author, each a
// contiguous window of ExampleSize token ids. Rows are grouped by author:
// rows [i*Examples, (i+1)*Examples) of the support batch belong to label i.
//
// Offsets are drawn uniformly and inclusively from:
//
//	ModeFull       support and query: [0, L-size-1]
//	ModeHalfSplit  support: [0, L/2-size-1], query: [L/2, L-size-1]
//
// so in half-split mode a query excerpt never overlaps a support excerpt.
// The highest offset leaves one token after the window unused.
package episode
