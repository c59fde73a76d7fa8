// Package bot implements the poll loop: list messages matching the
// configured query, skip already-handled and filtered ones, generate a
// reply, send it threaded to the source message, mark the source
// handled, record it in the replied-to set, sleep, repeat.
//
// Processing is single-threaded and sequential. A failure on one message
// is logged and skipped; the cycle continues with the next message. A
// failure to list messages at all backs the loop off exponentially until
// the next successful cycle.
package bot
