// Package journal persists the history of backend round trips in SQLite.
//
// Every call the core makes is appended with the logical sequence number it
// was stamped with. The highest recorded sequence lets a new process resume
// its clock, so sequence numbers stay unique across runs sharing a journal.
//
// Ordering: List returns entries ORDER BY seq ASC.
package journal
