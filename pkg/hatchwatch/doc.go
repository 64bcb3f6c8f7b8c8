// Package hatchwatch defines the neutral contracts shared by feed drivers and
// the aggregation pipeline: the feed message envelope drivers publish, the
// aggregated pet record and its frozen wire serialization, and the sentinel
// errors used across package boundaries.
package hatchwatch
