package message

// Reply is a plain-text answer sent back through the originating channel.
type Reply struct {
	Channel string `json:"channel"`
	ChatID  string `json:"chat_id"`
	// ReplyToID is the message being answered. Empty sends a standalone
	// message.
	ReplyToID string `json:"reply_to_id,omitempty"`
	Text      string `json:"text"`
}

// ReplyTo builds a reply addressed to the message that produced ev.
func ReplyTo(ev VoiceEvent, text string) Reply {
	return Reply{
		Channel:   ev.Channel,
		ChatID:    ev.Chat.ID,
		ReplyToID: ev.MessageID,
		Text:      text,
	}
}
