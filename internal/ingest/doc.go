// Package ingest turns raw feed messages into merged hatch records: it
// filters by channel, extracts per-line sightings, folds them into the
// store, and hands each merged record to the broadcaster.
package ingest
