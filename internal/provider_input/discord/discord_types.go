package discord

import (
	"encoding/json"
	"strconv"
	"strings"
)

// InteractionType is the discriminator of an inbound interaction payload.
type InteractionType int

const (
	InteractionTypePing               InteractionType = 1
	InteractionTypeApplicationCommand InteractionType = 2
	InteractionTypeMessageComponent   InteractionType = 3
	InteractionTypeAutocomplete       InteractionType = 4
	InteractionTypeModalSubmit        InteractionType = 5
)

func (t InteractionType) String() string {
	switch t {
	case InteractionTypePing:
		return "ping"
	case InteractionTypeApplicationCommand:
		return "application_command"
	case InteractionTypeMessageComponent:
		return "message_component"
	case InteractionTypeAutocomplete:
		return "autocomplete"
	case InteractionTypeModalSubmit:
		return "modal_submit"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// OptionType identifies the kind of an application command option.
type OptionType int

const (
	OptionTypeSubCommand      OptionType = 1
	OptionTypeSubCommandGroup OptionType = 2
	OptionTypeString          OptionType = 3
)

// DiscordUser is the subset of a platform user the bot reads.
type DiscordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

// DisplayName prefers the global display name over the username.
func (u DiscordUser) DisplayName() string {
	if strings.TrimSpace(u.GlobalName) != "" {
		return u.GlobalName
	}
	return u.Username
}

// DiscordMember wraps the user when the interaction comes from a guild.
type DiscordMember struct {
	User *DiscordUser `json:"user"`
}

// interactionEnvelope is the wire shape shared by every interaction type.
type interactionEnvelope struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	Type          InteractionType `json:"type"`
	Token         string          `json:"token"`
	GuildID       string          `json:"guild_id"`
	ChannelID     string          `json:"channel_id"`
	Member        *DiscordMember  `json:"member"`
	User          *DiscordUser    `json:"user"`
	Data          json.RawMessage `json:"data"`
}

type applicationCommandData struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Type    int             `json:"type"`
	Options []CommandOption `json:"options"`
}

// CommandOption is one (possibly nested) slash command option.
type CommandOption struct {
	Name    string          `json:"name"`
	Type    OptionType      `json:"type"`
	Value   json.RawMessage `json:"value,omitempty"`
	Options []CommandOption `json:"options,omitempty"`
}

// StringValue returns the option value when it is a JSON string.
func (o CommandOption) StringValue() (string, bool) {
	if len(o.Value) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(o.Value, &s); err != nil {
		return "", false
	}
	return s, true
}

type modalSubmitData struct {
	CustomID   string           `json:"custom_id"`
	Components []actionRowInput `json:"components"`
}

type actionRowInput struct {
	Type       int              `json:"type"`
	Components []textInputValue `json:"components"`
}

type textInputValue struct {
	Type     int    `json:"type"`
	CustomID string `json:"custom_id"`
	Value    string `json:"value"`
}
