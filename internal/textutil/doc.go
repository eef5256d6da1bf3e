// Package textutil provides text processing utilities for volume labels and
// filenames.
//
// The primary use cases are:
//   - Folding accented volume identifiers down to ASCII
//   - Sanitizing labels into safe filename stems
//   - Deriving human-friendly display titles for reports and sidecars
package textutil
