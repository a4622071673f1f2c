package content

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	created := time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)
	out, err := RenderMarkdown(Frontmatter{
		Title:   "My Tip",
		Tags:    []string{"Unity", "Editor"},
		Type:    TypeTip,
		Created: created,
	}, "Body text")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "---\ntitle: My Tip\n"), out)
	assert.Contains(t, out, "tags: [Unity, Editor]\n")
	assert.Contains(t, out, "type: tip\n")
	assert.Contains(t, out, "created: 2026-10-19T12:30:00Z\n")
	assert.NotContains(t, out, "link:")
	assert.NotContains(t, out, "source:")
	assert.True(t, strings.HasSuffix(out, "---\nBody text"), out)
}

func TestRenderMarkdown_QuotesUnsafeTitles(t *testing.T) {
	out, err := RenderMarkdown(Frontmatter{
		Title: "Unity: Custom Editor Tools!",
		Type:  TypeGuide,
		Link:  "https://example.com/tools",
	}, "")
	require.NoError(t, err)

	fm, body, err := ParseMarkdown([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "Unity: Custom Editor Tools!", fm.Title)
	assert.Empty(t, fm.Tags)
	assert.Equal(t, "https://example.com/tools", fm.Link)
	assert.Empty(t, body)
}

func TestParseMarkdown(t *testing.T) {
	src := "---\r\ntitle: Export Settings\r\ntags: [Blender, Assets]\r\ntype: tip\r\ncreated: 2024-01-05T00:00:00.000Z\r\n---\r\n\r\nUse FBX.\r\n"
	fm, body, err := ParseMarkdown([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "Export Settings", fm.Title)
	assert.Equal(t, []string{"Blender", "Assets"}, fm.Tags)
	assert.Equal(t, TypeTip, fm.Type)
	assert.Equal(t, 2024, fm.Created.Year())
	assert.Equal(t, "Use FBX.", body)

	_, _, err = ParseMarkdown([]byte("---\ntitle: open\n"))
	assert.Error(t, err)

	fm, body, err = ParseMarkdown([]byte("plain text"))
	require.NoError(t, err)
	assert.Empty(t, fm.Title)
	assert.Equal(t, "plain text", body)
}

func TestBuildIndex(t *testing.T) {
	fsys := fstest.MapFS{}
	fsys["a-first.mdx"] = &fstest.MapFile{Data: []byte("---\ntitle: A First\ntags: [Unity, Shaders]\ntype: tip\ncreated: 2024-01-01T00:00:00Z\n---\nbody a\n")}
	fsys["b-second.mdx"] = &fstest.MapFile{Data: []byte("---\ntitle: B Second\ntags: [Blender]\ntype: guide\ncreated: 2024-01-02T00:00:00Z\n---\n")}
	fsys["nested/c-third.mdx"] = &fstest.MapFile{Data: []byte("---\ntitle: C Third\ntags: [Shaders]\ntype: snippet\ncreated: 2024-01-03T00:00:00Z\n---\nfloat4 c;\n")}
	fsys["notes.txt"] = &fstest.MapFile{Data: []byte("ignored")}

	idx, err := BuildIndex(fsys, ".mdx", zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, []string{"Unity", "Shaders", "Blender"}, idx.Tags())
	shaders := idx.Records("Shaders")
	require.Len(t, shaders, 2)
	assert.Equal(t, "a-first", shaders[0].Slug)
	assert.Equal(t, "c-third", shaders[1].Slug)
	assert.Equal(t, "float4 c;", shaders[1].Body)
	assert.Equal(t, "Shaders", shaders[1].Category)
}
