// Package rules compiles subscription rule tables into matchers.
//
// A rule selects broadcasts by time-of-day window, weekday set, and
// case-insensitive title/info searches, and carries the naming, quality,
// retention, and tag templates the acquisition pipeline applies to its
// matches. Any malformed value is a configuration error that aborts the run
// before the catalog is fetched.
package rules
