package discord

import (
	"github.com/bwmarrin/discordgo"

	"hatchwatch/pkg/hatchwatch"
)

// mapMessage converts one gateway message event into the neutral feed
// message. Only the first embed carries the hatch summary; messages
// without embeds still flow through so the sink can count them.
func mapMessage(event *discordgo.MessageCreate) *hatchwatch.FeedMessage {
	if event == nil || event.Message == nil {
		return nil
	}

	message := &hatchwatch.FeedMessage{
		ChannelID: event.ChannelID,
		Embedded:  len(event.Embeds) > 0,
	}

	if len(event.Embeds) == 0 {
		return message
	}

	embed := event.Embeds[0]
	if embed == nil {
		return message
	}

	message.Description = embed.Description
	for _, field := range embed.Fields {
		if field == nil {
			continue
		}
		message.Fields = append(message.Fields, hatchwatch.FeedField{
			Name:  field.Name,
			Value: field.Value,
		})
	}

	return message
}
