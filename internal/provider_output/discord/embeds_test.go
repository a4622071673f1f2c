package discord

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tipsbot/internal/content"
)

func newTestBuilder() *Builder {
	b := NewBuilder(BuilderConfig{SiteHost: "tips.example.com/"})
	b.now = func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) }
	return b
}

func sampleRecord() content.Record {
	return content.Record{
		Title:   "Custom Editor Tools",
		Tags:    []string{"unity", "editor scripts", "VRChat"},
		Type:    content.TypeGuide,
		Slug:    "custom-editor-tools",
		Created: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRecordEmbed(t *testing.T) {
	embed := newTestBuilder().RecordEmbed(sampleRecord())

	assert.Equal(t, "Custom Editor Tools", embed.Title)
	assert.Equal(t, "https://tips.example.com/custom-editor-tools", embed.URL)
	assert.Equal(t, DefaultAccentColor, embed.Color)
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, EmbedField{Name: "Tags", Value: "Unity, Editor Scripts, VRChat"}, embed.Fields[0])
	assert.Equal(t, EmbedField{Name: "Type", Value: "Guide"}, embed.Fields[1])
	assert.Nil(t, embed.Author)
	assert.Empty(t, embed.Description)
	assert.Equal(t, "Created: 2024-03-01", embed.Footer.Text)
}

func TestRecordEmbed_LinkSourceAndSnippet(t *testing.T) {
	rec := sampleRecord()
	rec.Link = "https://example.com/talk"
	rec.Source = "GDC"
	rec.Type = content.TypeSnippet
	rec.Body = "```csharp\nDebug.Log(1);\n```"

	embed := newTestBuilder().RecordEmbed(rec)
	assert.Equal(t, "https://example.com/talk", embed.URL)
	require.NotNil(t, embed.Author)
	assert.Equal(t, "GDC", embed.Author.Name)
	assert.Equal(t, rec.Body, embed.Description)

	rec.Type = content.TypeTip
	assert.Empty(t, newTestBuilder().RecordEmbed(rec).Description, "only snippets carry their body")
}

func TestRecordEmbed_TruncatesLongText(t *testing.T) {
	rec := sampleRecord()
	rec.Title = strings.Repeat("é", 300)
	rec.Type = content.TypeSnippet
	rec.Body = strings.Repeat("x", 5000)

	embed := newTestBuilder().RecordEmbed(rec)
	assert.Equal(t, 256, utf8.RuneCountInString(embed.Title))
	assert.True(t, strings.HasSuffix(embed.Title, "…"))
	assert.Equal(t, 4096, utf8.RuneCountInString(embed.Description))
}

func TestRecordEmbed_PaletteColor(t *testing.T) {
	b := NewBuilder(BuilderConfig{SiteHost: "tips.example.com", AccentColor: 1, Palette: map[string]int{"Editor Scripts": 0x38bdf8}})
	assert.Equal(t, 0x38bdf8, b.RecordEmbed(sampleRecord()).Color)

	rec := sampleRecord()
	rec.Tags = []string{"Houdini"}
	assert.Equal(t, 1, b.RecordEmbed(rec).Color)
}

func TestSearchResults_CapsEmbeds(t *testing.T) {
	var recs []content.Record
	for i := 0; i < 14; i++ {
		rec := sampleRecord()
		rec.Title = fmt.Sprintf("Tip %d", i)
		rec.Slug = content.Slug(rec.Title)
		recs = append(recs, rec)
	}

	resp := newTestBuilder().SearchResults("tip", recs)
	assert.Equal(t, ResponseTypeChannelMessage, resp.Type)
	data := resp.Data.(MessageData)
	assert.Len(t, data.Embeds, MaxEmbedsPerMessage)
	assert.Equal(t, "Found 14 results for `tip`, showing the first 10", data.Content)
	assert.Equal(t, "tip-0", data.Embeds[0].URL[len("https://tips.example.com/"):])
}

func TestSearchResults_NoResults(t *testing.T) {
	resp := newTestBuilder().SearchResults("hou`dini", nil)
	data := resp.Data.(MessageData)
	assert.Equal(t, "No results found for `hou'dini`", data.Content)
	assert.Empty(t, data.Embeds)
}

func TestTipSaved(t *testing.T) {
	rec := sampleRecord()
	rec.Type = content.TypeSnippet
	rec.Body = "body"
	resp := newTestBuilder().TipSaved(rec, "ORL")
	data := resp.Data.(MessageData)
	assert.Equal(t, "### The tip has been saved", data.Content)
	require.Len(t, data.Embeds, 1)
	assert.Equal(t, "ORL", data.Embeds[0].Author.Name)
	assert.Empty(t, data.Embeds[0].Description)
}

func TestResponseJSON(t *testing.T) {
	pong, err := json.Marshal(Pong())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":1}`, string(pong))

	msg, err := json.Marshal(Ephemeral("nope"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":4,"data":{"content":"nope","allowed_mentions":{"parse":[]},"flags":64}}`, string(msg))

	modal, err := json.Marshal(AddTipModal("My Tip"))
	require.NoError(t, err)
	var decoded struct {
		Type int `json:"type"`
		Data struct {
			CustomID   string `json:"custom_id"`
			Components []struct {
				Components []struct {
					CustomID string `json:"custom_id"`
					Value    string `json:"value"`
				} `json:"components"`
			} `json:"components"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(modal, &decoded))
	assert.Equal(t, 9, decoded.Type)
	assert.Equal(t, AddTipModalID, decoded.Data.CustomID)
	require.Len(t, decoded.Data.Components, 5)
	assert.Equal(t, FieldTitle, decoded.Data.Components[0].Components[0].CustomID)
	assert.Equal(t, "My Tip", decoded.Data.Components[0].Components[0].Value)
}
