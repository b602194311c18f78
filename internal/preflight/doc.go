// Package preflight provides readiness checks for the binaries, paths, and
// capture devices a recording run depends on.
//
// The run orchestrator calls RunAll before opening any camera. A failed
// required check aborts the whole run up front instead of discovering the
// problem mid-episode. The CLI "clapper status" command reuses the
// individual check functions to display host readiness.
package preflight
