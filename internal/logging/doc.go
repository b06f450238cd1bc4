// Package logging sets up structured JSON logging for searchmark.
//
// Logs go to a size-rotated file under ~/.searchmark/logs/ so that batch runs
// and telemetry flushes can be inspected after the fact with `searchmark logs`.
// With --debug the same records are mirrored to stderr. Standard output is
// never used for logs; it carries highlighted results.
package logging
