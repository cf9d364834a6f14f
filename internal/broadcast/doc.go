// Package broadcast models one scheduled program from the on-demand catalog.
//
// Records are immutable once constructed: weekday, time of day, and date are
// derived a single time from the catalog's day label and time fields. The
// detail-page text fetched for matched broadcasts is carried by the Enriched
// wrapper rather than written back into the record.
package broadcast
