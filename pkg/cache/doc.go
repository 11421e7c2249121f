// Package cache implements the TTL and size bounded result cache used by
// the validation pipeline.
//
// Entries are keyed by a structural hash of (validator or rule name, value,
// configuration, schema version). The value hash is computed over a
// canonical JSON encoding, so two maps with the same contents but different
// insertion order produce the same key.
//
// Expired entries are evicted on access; when the table exceeds its size
// bound the least-recently-used entry is dropped. A cron-driven Janitor can
// additionally sweep expired entries in the background.
//
// Two concurrent lookups that miss on the same key both compute the result
// (a cache stampede). That is an accepted inefficiency: duplicate
// computation yields an equivalent result.
package cache
