package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/gotd/td/tg"
)

// rawUpdate is one flattened message-bearing update.
type rawUpdate struct {
	update     tg.UpdateClass
	occurredAt time.Time
}

// updateChannel bridges the gotd update handler callback and the driver's
// consume loop. Only message-bearing updates are forwarded.
type updateChannel struct {
	updates chan rawUpdate
}

func newUpdateChannel(buffer int) *updateChannel {
	if buffer <= 0 {
		buffer = defaultUpdateBuffer
	}

	return &updateChannel{
		updates: make(chan rawUpdate, buffer),
	}
}

func (c *updateChannel) stream() <-chan rawUpdate {
	return c.updates
}

// Handle flattens gotd update containers and forwards new-message updates.
func (c *updateChannel) Handle(ctx context.Context, updates tg.UpdatesClass) error {
	batch := flatten(updates)
	for _, item := range batch {
		select {
		case <-ctx.Done():
			return fmt.Errorf("forward telegram update: %w", ctx.Err())
		case c.updates <- item:
		}
	}

	return nil
}

func flatten(updates tg.UpdatesClass) []rawUpdate {
	switch typed := updates.(type) {
	case *tg.Updates:
		return flattenBatch(typed.Updates, typed.Date)
	case *tg.UpdatesCombined:
		return flattenBatch(typed.Updates, typed.Date)
	case *tg.UpdateShort:
		return flattenBatch([]tg.UpdateClass{typed.Update}, typed.Date)
	default:
		return nil
	}
}

func flattenBatch(updates []tg.UpdateClass, date int) []rawUpdate {
	occurredAt := time.Unix(int64(date), 0).UTC()

	batch := make([]rawUpdate, 0, len(updates))
	for _, update := range updates {
		switch update.(type) {
		case *tg.UpdateNewMessage, *tg.UpdateNewChannelMessage:
			batch = append(batch, rawUpdate{
				update:     update,
				occurredAt: occurredAt,
			})
		default:
		}
	}

	return batch
}
