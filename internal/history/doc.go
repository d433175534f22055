/*
Package history keeps a journal of scan, compress and move runs in a SQLite
database next to the metadata cache.

Each run gets a UUID. Moves and compressions are stored per run so the
history command can show exactly which files were renamed or replaced.

The database uses WAL journaling with a busy timeout so a second process
reading history does not block a running command. Journal failures are
reported to the caller, which logs them; they never change the outcome of a
run.
*/
package history
