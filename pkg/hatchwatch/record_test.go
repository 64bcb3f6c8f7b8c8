package hatchwatch

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRecordPayload(t *testing.T) {
	observedAt := time.UnixMilli(1700000000123).UTC()
	record := Record{
		PetName:    "Shadow Cat",
		JobID:      "job-1",
		ServerName: "Server One",
		Count:      3,
		Value:      1500000,
		Emoji:      "🐾",
		ObservedAt: observedAt,
	}

	want := RecordPayload{
		PetName:    "Shadow Cat",
		JobID:      "job-1",
		ServerName: "Server One",
		Count:      3,
		Value:      1500000,
		Emoji:      "🐾",
		Time:       1700000000123,
	}
	if diff := cmp.Diff(want, record.Payload()); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestNewPetPush(t *testing.T) {
	record := Record{PetName: "Dragon", JobID: "job-2", Count: 1}

	push := NewPetPush(record)
	if push.Type != PushTypeNewPet {
		t.Fatalf("push type = %q, want %q", push.Type, PushTypeNewPet)
	}
	if push.Pet.PetName != "Dragon" || push.Pet.JobID != "job-2" {
		t.Fatalf("push pet = %#v, want record payload", push.Pet)
	}
}

func TestRecordKey(t *testing.T) {
	record := Record{PetName: "Dragon", JobID: "job-2"}
	candidate := Candidate{PetName: "Dragon", JobID: "job-2"}

	if record.Key() != candidate.Key() {
		t.Fatalf("record key %#v != candidate key %#v", record.Key(), candidate.Key())
	}
}
