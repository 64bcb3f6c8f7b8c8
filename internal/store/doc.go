// Package store keeps the live set of hatch records in memory, merging
// repeated sightings of the same pet and expiring records that fall out of
// the retention window.
package store
