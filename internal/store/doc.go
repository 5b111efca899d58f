// Package store persists the gitfleet catalog and settings as one YAML document.
//
// Saves overwrite the whole document through a temporary-file rename so a
// crash never leaves a half-written store. Loads tolerate a missing,
// unreadable, or corrupted document by degrading to default state.
package store
