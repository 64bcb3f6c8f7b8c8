package hatchwatch

import (
	"context"
	"fmt"
	"strings"
)

// FeedField is one named key/value annotation attached to a feed message.
type FeedField struct {
	// Name is the annotation label as shown by the upstream platform.
	Name string
	// Value is the raw annotation value, platform formatting included.
	Value string
}

// FeedMessage is the neutral envelope that all feed drivers publish.
//
// Drivers own transport and session concerns and must publish only this
// shape; everything platform-specific stays behind the driver boundary.
type FeedMessage struct {
	// ChannelID identifies the upstream channel the message was posted in.
	ChannelID string
	// Embedded reports whether the message carries a structured payload.
	Embedded bool
	// Description is the multiline payload body.
	Description string
	// Fields holds the payload's side-channel annotations in upstream order.
	Fields []FeedField
}

// Validate checks feed message envelope invariants.
func (m *FeedMessage) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil message", ErrInvalidMessage)
	}
	if m.ChannelID == "" {
		return fmt.Errorf("%w: missing channel id", ErrInvalidMessage)
	}

	return nil
}

// Field returns the value of the first field whose name contains label.
//
// Upstream field names vary in decoration, so matching is by substring.
// When no field matches, found is false.
func (m *FeedMessage) Field(label string) (value string, found bool) {
	if m == nil || label == "" {
		return "", false
	}
	for _, field := range m.Fields {
		if containsFold(field.Name, label) {
			return field.Value, true
		}
	}

	return "", false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// FeedSink accepts feed messages for processing downstream of a driver.
type FeedSink interface {
	// Publish submits one feed message. Implementations must tolerate
	// messages that are not relevant to them and return nil for those.
	Publish(ctx context.Context, message *FeedMessage) error
}

// Driver adapts one external chat platform into neutral feed messages.
type Driver interface {
	// Name returns a stable driver identifier.
	Name() string
	// Start connects to the platform and publishes feed messages to sink.
	// It returns only after context cancellation or a fatal feed error;
	// a failure to establish the upstream session is fatal.
	Start(ctx context.Context, sink FeedSink) error
	// Shutdown releases resources not tied to the Start context alone.
	Shutdown(ctx context.Context) error
}
