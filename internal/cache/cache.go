// Package cache implements the in-memory freshness caches that sit between
// the recipe service and the remote store. All regions share one contract:
// wall-clock expiry checked synchronously on access, no background refresh,
// and an expired entry is never observably returned.
package cache

import "time"

// TTLs and bounds for the three cache regions.
const (
	CatalogTTL = 20 * time.Second
	TextTTL    = time.Minute
	ContentTTL = 15 * time.Minute

	// ContentCap bounds the binary region; least-recently-used entries are
	// evicted once the bound is hit.
	ContentCap = 128
)
