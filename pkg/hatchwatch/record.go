package hatchwatch

import (
	"time"
)

const (
	// DefaultJobID is the sentinel session identifier used when the feed
	// message carries no Job ID annotation.
	DefaultJobID = "unknown"
	// DefaultServerName is the sentinel context label used when the feed
	// message carries no Server Name annotation.
	DefaultServerName = "Unknown Server"
)

// RecordKey identifies one live record: observations of the same pet within
// the same job are merged into a single record.
type RecordKey struct {
	JobID   string
	PetName string
}

// Record is the aggregated state for one (job, pet) pair.
//
// The record store exclusively owns all records; snapshot and broadcast
// paths receive copies, never references.
type Record struct {
	// PetName identifies the observed pet kind.
	PetName string
	// JobID groups observations belonging to the same upstream session.
	JobID string
	// ServerName is a human-readable label for the originating session.
	ServerName string
	// Count is the cumulative occurrences observed for this pet in this job.
	Count int
	// Value is the normalized per-second rate; merges keep the maximum seen.
	Value float64
	// Emoji is the iconographic tag from the most recent observation.
	Emoji string
	// ObservedAt is the timestamp of the latest contributing observation.
	ObservedAt time.Time
}

// Key returns the merge key for this record.
func (r Record) Key() RecordKey {
	return RecordKey{JobID: r.JobID, PetName: r.PetName}
}

// Candidate is one extracted observation, resolved with session metadata,
// before it is merged into the record store.
type Candidate struct {
	PetName    string
	JobID      string
	ServerName string
	Count      int
	Value      float64
	Emoji      string
	ObservedAt time.Time
}

// Key returns the merge key for this candidate.
func (c Candidate) Key() RecordKey {
	return RecordKey{JobID: c.JobID, PetName: c.PetName}
}

// RecordPayload is the frozen wire serialization of a record. Field names
// and the epoch-millisecond time encoding are fixed for compatibility with
// existing consumers.
type RecordPayload struct {
	PetName    string  `json:"petName"`
	JobID      string  `json:"jobId"`
	ServerName string  `json:"serverName"`
	Count      int     `json:"count"`
	Value      float64 `json:"value"`
	Emoji      string  `json:"emoji"`
	Time       int64   `json:"time"`
}

// Payload converts the record into its wire serialization.
func (r Record) Payload() RecordPayload {
	return RecordPayload{
		PetName:    r.PetName,
		JobID:      r.JobID,
		ServerName: r.ServerName,
		Count:      r.Count,
		Value:      r.Value,
		Emoji:      r.Emoji,
		Time:       r.ObservedAt.UnixMilli(),
	}
}

// PushTypeNewPet is the type tag of every subscriber push message.
const PushTypeNewPet = "new_pet"

// PushMessage is the envelope delivered to subscribers for every new or
// updated record.
type PushMessage struct {
	Type string        `json:"type"`
	Pet  RecordPayload `json:"pet"`
}

// NewPetPush builds the subscriber push envelope for one merged record.
func NewPetPush(record Record) PushMessage {
	return PushMessage{
		Type: PushTypeNewPet,
		Pet:  record.Payload(),
	}
}
