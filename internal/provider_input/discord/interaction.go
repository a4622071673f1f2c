// Package discord decodes inbound Discord interaction payloads into a closed
// set of variants keyed by the payload's type field.
package discord

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformedInteraction   = errors.New("discord: malformed interaction")
	ErrUnsupportedInteraction = errors.New("discord: unsupported interaction type")
)

// Interaction is one inbound request. The concrete type is one of *Ping,
// *ApplicationCommand or *ModalSubmit.
type Interaction interface {
	Type() InteractionType
	Meta() Metadata
	sealed()
}

// Metadata is carried by every variant.
type Metadata struct {
	ID            string
	ApplicationID string
	Token         string
	GuildID       string
	ChannelID     string
	// Caller is the invoking user: the guild member's user, or the DM user.
	Caller DiscordUser
}

// CallerID is the platform user id of whoever triggered the interaction.
func (m Metadata) CallerID() string { return m.Caller.ID }

type Ping struct{ Metadata }

func (*Ping) Type() InteractionType { return InteractionTypePing }
func (p *Ping) Meta() Metadata      { return p.Metadata }
func (*Ping) sealed()               {}

// ApplicationCommand is a slash command invocation.
type ApplicationCommand struct {
	Metadata
	Name    string
	Options []CommandOption
}

func (*ApplicationCommand) Type() InteractionType { return InteractionTypeApplicationCommand }
func (c *ApplicationCommand) Meta() Metadata      { return c.Metadata }
func (*ApplicationCommand) sealed()               {}

// ModalSubmit is a filled-in form coming back from the platform.
type ModalSubmit struct {
	Metadata
	CustomID string
	fields   map[string]string
}

func (*ModalSubmit) Type() InteractionType { return InteractionTypeModalSubmit }
func (m *ModalSubmit) Meta() Metadata      { return m.Metadata }
func (*ModalSubmit) sealed()               {}

// Field returns the submitted value of the text input with the given id.
func (m *ModalSubmit) Field(customID string) (string, bool) {
	v, ok := m.fields[customID]
	return v, ok
}

// NewModalSubmit builds a submission from already decoded fields.
func NewModalSubmit(meta Metadata, customID string, fields map[string]string) *ModalSubmit {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &ModalSubmit{Metadata: meta, CustomID: customID, fields: copied}
}

// ParseInteraction decodes body. Types other than ping, application command
// and modal submit are rejected.
func ParseInteraction(body []byte) (Interaction, error) {
	var env interactionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInteraction, err)
	}

	meta := Metadata{
		ID:            env.ID,
		ApplicationID: env.ApplicationID,
		Token:         env.Token,
		GuildID:       env.GuildID,
		ChannelID:     env.ChannelID,
	}
	switch {
	case env.Member != nil && env.Member.User != nil:
		meta.Caller = *env.Member.User
	case env.User != nil:
		meta.Caller = *env.User
	}

	switch env.Type {
	case InteractionTypePing:
		return &Ping{Metadata: meta}, nil

	case InteractionTypeApplicationCommand:
		var data applicationCommandData
		if err := decodeData(env.Data, &data); err != nil {
			return nil, err
		}
		return &ApplicationCommand{Metadata: meta, Name: data.Name, Options: data.Options}, nil

	case InteractionTypeModalSubmit:
		var data modalSubmitData
		if err := decodeData(env.Data, &data); err != nil {
			return nil, err
		}
		fields := make(map[string]string)
		for _, row := range data.Components {
			for _, input := range row.Components {
				if input.CustomID == "" {
					continue
				}
				if _, dup := fields[input.CustomID]; !dup {
					fields[input.CustomID] = input.Value
				}
			}
		}
		return &ModalSubmit{Metadata: meta, CustomID: data.CustomID, fields: fields}, nil

	case 0:
		return nil, fmt.Errorf("%w: missing type", ErrMalformedInteraction)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInteraction, env.Type)
	}
}

func decodeData(raw json.RawMessage, into any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%w: missing data", ErrMalformedInteraction)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("%w: data: %v", ErrMalformedInteraction, err)
	}
	return nil
}
