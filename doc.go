// Package infitable provides a virtualized, sortable and infinitely
// scrollable data table.
//
// Overview
//
// A Shell wires five parts together:
//   - Client and Query: a cache of fetched pages keyed by query identity
//     (query key plus sort). Pages are fetched on demand, deduplicated and
//     bounded in concurrency. Rows of the previous identity stay visible
//     as placeholders until the first page of the new one arrives.
//   - Watcher: fires once each time the row after the last loaded one
//     becomes visible, which requests the next page in infinite mode.
//   - Table: builds headers and rows from the column schema and cycles the
//     sort of a column through none, ascending and descending.
//   - Virtualizer: mounts only the rows inside the viewport plus an
//     overscan, using measured row heights when they are known.
//   - Frame: an immutable snapshot a renderer draws from.
//
// Sources
//
// A FetchFunc serves one page at a time. SliceSource pages through an
// in-memory slice, GormSource through a gorm query with LIMIT/OFFSET and
// KeysetSource with keyset conditions built from the last row of the
// previous page. Pager, OffsetCursor and KeysetCursor are the building
// blocks the gorm sources share.
//
// The tui package renders a Shell with bubbletea; cmd/infitable is a
// terminal browser for database tables built on it.
package infitable
