// Package split partitions authors into disjoint training and validation
// pools and persists the partition so later runs hold out the same authors.
//
// A Store loads and saves one partition per corpus. Stores that also
// implement Locker serialize the load-sample-save sequence across processes.
// When a persisted partition is found it is reused, restricted to the authors
// still present; otherwise a fresh one is drawn from the injected random
// source and saved.
package split
