// Package logs provides bounded-memory tailing of the recorder log file.
//
// Tail returns the last N lines without loading the whole file, and
// Follow polls for new lines from a known offset so `clapper logs
// --follow` keeps printing while a recording run is active.
package logs
