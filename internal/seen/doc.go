// Package seen tracks which Gmail messages have already been replied to,
// so a message is never answered twice even across restarts.
//
// Two implementations are provided. MemoryStore keeps the set in memory
// and is lost on restart. SQLiteStore persists the set to a local SQLite
// database file. NewStore picks the SQLite store when a database path is
// configured and falls back to memory otherwise.
package seen
