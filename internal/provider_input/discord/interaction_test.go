package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInteraction_Ping(t *testing.T) {
	in, err := ParseInteraction([]byte(`{"type":1}`))
	require.NoError(t, err)
	_, ok := in.(*Ping)
	assert.True(t, ok)
	assert.Equal(t, InteractionTypePing, in.Type())
}

func TestParseInteraction_ApplicationCommand(t *testing.T) {
	body := `{
		"id": "int-1", "application_id": "app-1", "type": 2, "token": "tok",
		"member": {"user": {"id": "42", "username": "orels", "global_name": "ORL"}},
		"data": {"id": "cmd-1", "name": "tips", "type": 1, "options": [
			{"name": "search", "type": 1, "options": [{"name": "term", "type": 3, "value": "unity"}]}
		]}
	}`
	in, err := ParseInteraction([]byte(body))
	require.NoError(t, err)

	cmd, ok := in.(*ApplicationCommand)
	require.True(t, ok)
	assert.Equal(t, "tips", cmd.Name)
	assert.Equal(t, "42", cmd.Meta().CallerID())
	assert.Equal(t, "ORL", cmd.Meta().Caller.DisplayName())
	require.Len(t, cmd.Options, 1)
	assert.Equal(t, OptionTypeSubCommand, cmd.Options[0].Type)

	term, ok := cmd.Options[0].Options[0].StringValue()
	assert.True(t, ok)
	assert.Equal(t, "unity", term)
}

func TestParseInteraction_DirectMessageCaller(t *testing.T) {
	in, err := ParseInteraction([]byte(`{"type":2,"user":{"id":"7","username":"dm-user"},"data":{"name":"tips"}}`))
	require.NoError(t, err)
	assert.Equal(t, "7", in.Meta().CallerID())
	assert.Equal(t, "dm-user", in.Meta().Caller.DisplayName())
}

func TestParseInteraction_ModalSubmit(t *testing.T) {
	body := `{
		"type": 5,
		"member": {"user": {"id": "42"}},
		"data": {"custom_id": "add_tip", "components": [
			{"type": 1, "components": [{"type": 4, "custom_id": "title", "value": "My Tip"}]},
			{"type": 1, "components": [{"type": 4, "custom_id": "tags", "value": "Unity, Editor"}]},
			{"type": 1, "components": [{"type": 4, "custom_id": "link", "value": ""}]}
		]}
	}`
	in, err := ParseInteraction([]byte(body))
	require.NoError(t, err)

	modal, ok := in.(*ModalSubmit)
	require.True(t, ok)
	assert.Equal(t, "add_tip", modal.CustomID)

	title, ok := modal.Field("title")
	assert.True(t, ok)
	assert.Equal(t, "My Tip", title)

	link, ok := modal.Field("link")
	assert.True(t, ok)
	assert.Empty(t, link)

	_, ok = modal.Field("content")
	assert.False(t, ok)
}

func TestParseInteraction_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"not json", `{type:1`, ErrMalformedInteraction},
		{"no type", `{}`, ErrMalformedInteraction},
		{"command without data", `{"type":2}`, ErrMalformedInteraction},
		{"modal with null data", `{"type":5,"data":null}`, ErrMalformedInteraction},
		{"component", `{"type":3,"data":{}}`, ErrUnsupportedInteraction},
		{"autocomplete", `{"type":4,"data":{}}`, ErrUnsupportedInteraction},
		{"beyond range", `{"type":6}`, ErrUnsupportedInteraction},
		{"string type", `{"type":"1"}`, ErrMalformedInteraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInteraction([]byte(tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCommandOption_StringValue(t *testing.T) {
	_, ok := CommandOption{Name: "count", Value: []byte(`3`)}.StringValue()
	assert.False(t, ok)
	_, ok = CommandOption{Name: "search"}.StringValue()
	assert.False(t, ok)
}
