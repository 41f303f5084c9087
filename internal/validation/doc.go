// Package validation checks input files and output directories up front so
// a run fails before any phase starts.
package validation
