// Package inventory discovers conversion inputs on disk, sorts them into the
// pipeline that would handle each one, and gathers cheap per-file statistics.
// It reports progress through a two-phase emitter tree: an indeterminate
// discovery walk followed by a bounded concurrent analysis.
package inventory
