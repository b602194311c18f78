// Package journal keeps a SQLite ledger of recording attempts. Every
// episode attempt is journaled when recording starts and resolved to
// committed or aborted, so an operator can see what happened across runs
// even for episodes that never reached the dataset catalog.
package journal
