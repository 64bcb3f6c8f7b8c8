package telegram

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gotd/td/tg"

	"hatchwatch/pkg/hatchwatch"
)

// fieldLinePattern matches "Label: value" lines that channel posts use in
// place of structured embed fields.
var fieldLinePattern = regexp.MustCompile(`^([^:*]{1,64}): (.+)$`)

// mapUpdate converts one flattened update into the neutral feed message.
// Updates that do not carry a plain message are skipped.
func mapUpdate(raw rawUpdate) *hatchwatch.FeedMessage {
	var messageClass tg.MessageClass
	switch typed := raw.update.(type) {
	case *tg.UpdateNewMessage:
		messageClass = typed.Message
	case *tg.UpdateNewChannelMessage:
		messageClass = typed.Message
	default:
		return nil
	}

	message, ok := messageClass.(*tg.Message)
	if !ok || message.Out {
		return nil
	}

	return &hatchwatch.FeedMessage{
		ChannelID:   peerID(message.PeerID),
		Embedded:    message.Message != "",
		Description: message.Message,
		Fields:      parseFields(message.Message),
	}
}

func peerID(peer tg.PeerClass) string {
	switch typed := peer.(type) {
	case *tg.PeerChannel:
		return strconv.FormatInt(typed.ChannelID, 10)
	case *tg.PeerChat:
		return strconv.FormatInt(typed.ChatID, 10)
	case *tg.PeerUser:
		return strconv.FormatInt(typed.UserID, 10)
	default:
		return ""
	}
}

func parseFields(text string) []hatchwatch.FeedField {
	var fields []hatchwatch.FeedField
	for _, line := range strings.Split(text, "\n") {
		groups := fieldLinePattern.FindStringSubmatch(strings.TrimSpace(line))
		if groups == nil {
			continue
		}
		fields = append(fields, hatchwatch.FeedField{
			Name:  strings.TrimSpace(groups[1]),
			Value: strings.TrimSpace(groups[2]),
		})
	}

	return fields
}
