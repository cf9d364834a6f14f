// Package catalog reads the daily Ö1 on-demand programme listings and the
// per-broadcast detail pages.
//
// Fetcher.FetchRange walks a date range one day at a time and yields the
// broadcasts of each day lazily, in listing order. Days without a listing
// are logged and skipped. Fetcher.Enrich pulls the long description of a
// single broadcast from its detail page.
package catalog
