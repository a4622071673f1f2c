package discord

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tipsbot/internal/content"
)

// DefaultAccentColor is used when no palette entry matches.
const DefaultAccentColor = 9792480

const (
	maxEmbedTitle       = 256
	maxEmbedDescription = 4096
)

// Embed is a rich message card.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

type EmbedAuthor struct {
	Name string `json:"name"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// BuilderConfig configures how records turn into embeds.
type BuilderConfig struct {
	// SiteHost is the host of the published knowledge base, used for
	// records without their own link.
	SiteHost    string
	AccentColor int
	// Palette maps a tag to an embed color. The first tag of a record with
	// an entry wins.
	Palette map[string]int
}

// Builder renders domain data into platform payloads. It holds no mutable
// state after construction.
type Builder struct {
	siteHost string
	accent   int
	palette  map[string]int
	now      func() time.Time
}

// NewBuilder copies cfg so later changes to the caller's map are not seen.
func NewBuilder(cfg BuilderConfig) *Builder {
	accent := cfg.AccentColor
	if accent == 0 {
		accent = DefaultAccentColor
	}
	palette := make(map[string]int, len(cfg.Palette))
	for tag, color := range cfg.Palette {
		palette[strings.ToLower(tag)] = color
	}
	return &Builder{
		siteHost: strings.TrimSuffix(cfg.SiteHost, "/"),
		accent:   accent,
		palette:  palette,
		now:      time.Now,
	}
}

// CanonicalURL is the record's own link, or its page on the site.
func (b *Builder) CanonicalURL(rec content.Record) string {
	if rec.Link != "" {
		return rec.Link
	}
	return fmt.Sprintf("https://%s/%s", b.siteHost, rec.Slug)
}

func (b *Builder) colorFor(tags []string) int {
	for _, tag := range tags {
		if c, ok := b.palette[strings.ToLower(tag)]; ok {
			return c
		}
	}
	return b.accent
}

// titleCase upper-cases the first letter of each word and leaves the rest,
// so "VRChat" stays as written. Casers are not goroutine safe, hence one per call.
func titleCase(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// RecordEmbed renders one content record.
func (b *Builder) RecordEmbed(rec content.Record) Embed {
	tags := make([]string, 0, len(rec.Tags))
	for _, t := range rec.Tags {
		tags = append(tags, titleCase(t))
	}

	embed := Embed{
		Title: truncate(rec.Title, maxEmbedTitle),
		URL:   b.CanonicalURL(rec),
		Color: b.colorFor(rec.Tags),
	}
	if len(tags) > 0 {
		embed.Fields = append(embed.Fields, EmbedField{Name: "Tags", Value: strings.Join(tags, ", ")})
	}
	if rec.Type != "" {
		embed.Fields = append(embed.Fields, EmbedField{Name: "Type", Value: titleCase(string(rec.Type))})
	}
	if rec.Source != "" {
		embed.Author = &EmbedAuthor{Name: rec.Source}
	}
	if rec.Type == content.TypeSnippet && rec.HasBody() {
		embed.Description = truncate(rec.Body, maxEmbedDescription)
	}

	created := rec.Created
	if created.IsZero() {
		created = b.now()
	}
	embed.Footer = &EmbedFooter{Text: "Created: " + created.Format("2006-01-02")}
	return embed
}

// SearchResults renders at most MaxEmbedsPerMessage matches for term.
func (b *Builder) SearchResults(term string, recs []content.Record) InteractionResponse {
	if len(recs) == 0 {
		return Message(fmt.Sprintf("No results found for `%s`", sanitizeInline(term)))
	}

	shown := recs
	if len(shown) > MaxEmbedsPerMessage {
		shown = shown[:MaxEmbedsPerMessage]
	}
	embeds := make([]Embed, 0, len(shown))
	for _, rec := range shown {
		embeds = append(embeds, b.RecordEmbed(rec))
	}

	text := fmt.Sprintf("Found %d results for `%s`", len(recs), sanitizeInline(term))
	if len(recs) == 1 {
		text = fmt.Sprintf("Found 1 result for `%s`", sanitizeInline(term))
	}
	if len(recs) > len(shown) {
		text += fmt.Sprintf(", showing the first %d", len(shown))
	}
	return Message(text, embeds...)
}

// TipSaved confirms a committed entry, crediting the submitter.
func (b *Builder) TipSaved(rec content.Record, author string) InteractionResponse {
	embed := b.RecordEmbed(rec)
	embed.Description = ""
	if author != "" {
		embed.Author = &EmbedAuthor{Name: author}
	}
	return Message("### The tip has been saved", embed)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}

// sanitizeInline keeps user text from breaking out of an inline code span.
func sanitizeInline(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	return truncate(strings.TrimSpace(s), 100)
}
