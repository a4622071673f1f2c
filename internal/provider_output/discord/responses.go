package discord

// InteractionResponseType is the discriminator of a webhook reply.
type InteractionResponseType int

const (
	ResponseTypePong           InteractionResponseType = 1
	ResponseTypeChannelMessage InteractionResponseType = 4
	ResponseTypeModal          InteractionResponseType = 9
)

// MessageFlagEphemeral shows a message only to the invoking user.
const MessageFlagEphemeral = 1 << 6

// MaxEmbedsPerMessage is the platform cap on embeds in one message.
const MaxEmbedsPerMessage = 10

// InteractionResponse is the JSON body returned to the platform.
type InteractionResponse struct {
	Type InteractionResponseType `json:"type"`
	Data any                     `json:"data,omitempty"`
}

// MessageData is the payload of a channel message response.
type MessageData struct {
	Content         string          `json:"content,omitempty"`
	Embeds          []Embed         `json:"embeds,omitempty"`
	AllowedMentions AllowedMentions `json:"allowed_mentions"`
	Flags           int             `json:"flags,omitempty"`
}

// AllowedMentions with an empty Parse list suppresses every ping.
type AllowedMentions struct {
	Parse []string `json:"parse"`
}

func noMentions() AllowedMentions {
	return AllowedMentions{Parse: []string{}}
}

// Pong acknowledges a ping.
func Pong() InteractionResponse {
	return InteractionResponse{Type: ResponseTypePong}
}

// Message is a plain channel message visible to everyone in the channel.
func Message(content string, embeds ...Embed) InteractionResponse {
	if len(embeds) > MaxEmbedsPerMessage {
		embeds = embeds[:MaxEmbedsPerMessage]
	}
	return InteractionResponse{
		Type: ResponseTypeChannelMessage,
		Data: MessageData{
			Content:         content,
			Embeds:          embeds,
			AllowedMentions: noMentions(),
		},
	}
}

// Ephemeral is a message only the caller sees. Denials, throttling and
// failures use it.
func Ephemeral(content string) InteractionResponse {
	return InteractionResponse{
		Type: ResponseTypeChannelMessage,
		Data: MessageData{
			Content:         content,
			AllowedMentions: noMentions(),
			Flags:           MessageFlagEphemeral,
		},
	}
}
