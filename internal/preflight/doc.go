// Package preflight provides readiness checks for the filesystem inputs and
// outputs that fewshot depends on.
//
// The CLI "fewshot check" command runs RunAll and renders the results as a
// table. Checks never modify anything: missing state directories are reported,
// not created.
package preflight
