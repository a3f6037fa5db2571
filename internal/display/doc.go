// Package display provides the targets the time client renders into.
//
// A Target is anything that can take a piece of text and show it. The
// client never looks at the page or terminal directly; it is handed a
// Target and writes the fetched time string into it.
//
// Available targets:
//   - Document / Element: an in-memory set of elements addressable by id,
//     the stand-in for a page with an element called "time"
//   - Writer: prints every value on its own line to an io.Writer
//   - TextView: sets the text of a tview.TextView in a terminal UI
//
// Writes to a Document target resolve the element at write time, so a
// missing element surfaces as ErrElementNotFound from SetText rather than
// at construction.
package display
