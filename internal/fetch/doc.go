// Package fetch retrieves catalog pages and broadcast streams over HTTP.
//
// Client.Text returns decoded page bodies, memoized through a Cache and
// coalesced per URL so concurrent callers share one request. Outbound
// requests are paced by a token bucket and retried with exponential backoff
// on network errors and 5xx/429 responses. Client.Download streams a
// response into a pending file and only replaces the destination once the
// body was received completely.
package fetch
