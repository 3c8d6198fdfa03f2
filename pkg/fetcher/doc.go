// Package fetcher issues the HTTP requests of the scraper.
//
// Thread and candidate pages use a short timeout; aggregator lookups use their
// own (by default unlimited) timeout because the service is slow but does answer.
// Connection-level failures are retried once after a short pause. A response
// with a failure status is returned immediately as an *errors.Error carrying the
// code, with 404 classified separately so callers can treat it as "archived".
package fetcher
