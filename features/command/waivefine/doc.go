// Package waivefine implements the Waive Fine use case.
//
// Waiving forgives a pending fine for a documented reason and appends an
// immutable entry to the fine journal. An empty reason is rejected before
// any mutation; a fine that is already paid or waived stays frozen.
package waivefine
