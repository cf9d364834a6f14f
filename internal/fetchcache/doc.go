// Package fetchcache memoizes fetched catalog and detail pages by URL.
//
// A Service keeps the entries of the current run in memory and writes them
// through to a Backend on Flush. Three backends exist: SQLite (the default,
// a single file under paths.cache_dir), Redis (shared between hosts), and a
// process-local map used when persistence is unwanted. Entries older than the
// configured time-to-live are treated as misses.
package fetchcache
